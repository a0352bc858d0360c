package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"teko/internal/config"
)

// Store manages collection persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open ensures the data directory exists and opens the collection database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens (creating if needed) the SQLite database at path.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create validates draft and inserts it for ownerID. The id and timestamps
// are generated here.
func (s *Store) Create(ctx context.Context, ownerID string, draft Draft) (*Record, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	timestamp := s.now().UTC().Format(time.RFC3339Nano)
	args := append([]any{id, ownerID}, draftArgs(draft)...)
	args = append(args, timestamp, timestamp)

	if _, err := s.execWithRetry(ctx,
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	); err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

// Get fetches a record owned by ownerID.
func (s *Store) Get(ctx context.Context, ownerID, id string) (*Record, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ? AND owner_id = ?`,
		strings.TrimSpace(id), ownerID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// List returns ownerID's records matching filter.
func (s *Store) List(ctx context.Context, ownerID string, filter Filter) ([]*Record, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	var (
		where = []string{"owner_id = ?"}
		args  = []any{ownerID}
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		where = append(where, `(album_title LIKE ? ESCAPE '\' OR artist LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if artist := strings.TrimSpace(filter.Artist); artist != "" {
		where = append(where, "artist = ? COLLATE NOCASE")
		args = append(args, artist)
	}
	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		where = append(where, `(', ' || genre || ', ') LIKE ? ESCAPE '\'`)
		args = append(args, "%, "+escapeLike(genre)+", %")
	}

	query := `SELECT ` + recordColumns + ` FROM records WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY ` + filter.Sort.clause()
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Update replaces the content of an existing record.
func (s *Store) Update(ctx context.Context, ownerID, id string, draft Draft) (*Record, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	args := draftArgs(draft)
	args = append(args, s.now().UTC().Format(time.RFC3339Nano), strings.TrimSpace(id), ownerID)
	res, err := s.execWithRetry(ctx,
		`UPDATE records
         SET album_title = ?, artist = ?, release_year = ?, cover_art_url = ?, genre = ?,
             master_id = ?, release_id = ?, release_label = ?, release_country = ?,
             release_catalog_number = ?, condition = ?, purchase_date = ?, price = ?, notes = ?,
             updated_at = ?
         WHERE id = ? AND owner_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, ownerID, id)
}

// Delete removes a record owned by ownerID.
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return ErrUnauthorized
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM records WHERE id = ? AND owner_id = ?`, strings.TrimSpace(id), ownerID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
