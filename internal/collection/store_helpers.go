package collection

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const recordColumns = "id, owner_id, album_title, artist, release_year, cover_art_url, genre, master_id, release_id, release_label, release_country, release_catalog_number, condition, purchase_date, price, notes, created_at, updated_at"

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner rowScanner) (*Record, error) {
	var (
		rec          Record
		releaseYear  sql.NullInt64
		coverArt     sql.NullString
		genre        sql.NullString
		masterID     sql.NullInt64
		releaseID    sql.NullInt64
		label        sql.NullString
		country      sql.NullString
		catalog      sql.NullString
		condition    sql.NullString
		purchaseDate sql.NullString
		price        sql.NullFloat64
		notes        sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.AlbumTitle,
		&rec.Artist,
		&releaseYear,
		&coverArt,
		&genre,
		&masterID,
		&releaseID,
		&label,
		&country,
		&catalog,
		&condition,
		&purchaseDate,
		&price,
		&notes,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	if releaseYear.Valid {
		year := int(releaseYear.Int64)
		rec.ReleaseYear = &year
	}
	if masterID.Valid {
		id := masterID.Int64
		rec.MasterID = &id
	}
	if releaseID.Valid {
		id := releaseID.Int64
		rec.ReleaseID = &id
	}
	if price.Valid {
		value := price.Float64
		rec.Price = &value
	}
	rec.CoverArtURL = coverArt.String
	rec.Genre = genre.String
	rec.ReleaseLabel = label.String
	rec.ReleaseCountry = country.String
	rec.ReleaseCatalogNumber = catalog.String
	rec.Condition = condition.String
	rec.PurchaseDate = purchaseDate.String
	rec.Notes = notes.String
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return &rec, nil
}

func draftArgs(d Draft) []any {
	return []any{
		d.AlbumTitle,
		d.Artist,
		nullableInt(d.ReleaseYear),
		nullableString(d.CoverArtURL),
		nullableString(d.Genre),
		nullableInt64(d.MasterID),
		nullableInt64(d.ReleaseID),
		nullableString(d.ReleaseLabel),
		nullableString(d.ReleaseCountry),
		nullableString(d.ReleaseCatalogNumber),
		nullableString(d.Condition),
		nullableString(d.PurchaseDate),
		nullableFloat(d.Price),
		nullableString(d.Notes),
	}
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
