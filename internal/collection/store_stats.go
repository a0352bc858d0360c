package collection

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"teko/internal/textutil"
)

// DefaultTopArtists is how many artists Stats reports.
const DefaultTopArtists = 5

// Stats aggregates ownerID's collection.
func (s *Store) Stats(ctx context.Context, ownerID string) (*Stats, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	stats := &Stats{}
	var spend sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), SUM(price) FROM records WHERE owner_id = ?`, ownerID,
	).Scan(&stats.TotalRecords, &spend); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	stats.TotalSpend = spend.Float64

	genres, err := s.genreCounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stats.Genres = genres

	decades, err := s.decadeCounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stats.Decades = decades

	artists, err := s.topArtists(ctx, ownerID, DefaultTopArtists)
	if err != nil {
		return nil, err
	}
	stats.TopArtists = artists
	return stats, nil
}

// genreCounts splits the comma-joined genre column so a "Rock, Pop" record
// counts toward both genres.
func (s *Store) genreCounts(ctx context.Context, ownerID string) ([]Count, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT genre FROM records WHERE owner_id = ? AND genre IS NOT NULL AND genre != ''`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()

	tally := map[string]int{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		seen := map[string]struct{}{}
		for _, part := range strings.Split(raw, ",") {
			label := textutil.TitleCase(part)
			if label == "" {
				continue
			}
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			tally[label]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genres: %w", err)
	}
	return sortedCounts(tally), nil
}

func (s *Store) decadeCounts(ctx context.Context, ownerID string) ([]Count, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT (release_year / 10) * 10 AS decade, COUNT(1)
         FROM records WHERE owner_id = ? AND release_year IS NOT NULL
         GROUP BY decade ORDER BY decade`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query decades: %w", err)
	}
	defer rows.Close()

	var out []Count
	for rows.Next() {
		var (
			decade int
			count  int
		)
		if err := rows.Scan(&decade, &count); err != nil {
			return nil, fmt.Errorf("scan decade: %w", err)
		}
		out = append(out, Count{Label: strconv.Itoa(decade) + "s", Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decades: %w", err)
	}
	return out, nil
}

func (s *Store) topArtists(ctx context.Context, ownerID string, limit int) ([]Count, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT MIN(artist), COUNT(1) AS n
         FROM records WHERE owner_id = ?
         GROUP BY artist COLLATE NOCASE
         ORDER BY n DESC, MIN(artist) COLLATE NOCASE
         LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query artists: %w", err)
	}
	defer rows.Close()

	var out []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artists: %w", err)
	}
	return out, nil
}

func sortedCounts(tally map[string]int) []Count {
	out := make([]Count, 0, len(tally))
	for label, count := range tally {
		out = append(out, Count{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
