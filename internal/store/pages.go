package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetPage returns the cached HTML for title. Entries older than the
// configured cache TTL are reported as misses.
func (s *Store) GetPage(ctx context.Context, title string) (string, bool, error) {
	var html, fetchedRaw string
	err := s.db.QueryRowContext(ctx, `SELECT html, fetched_at FROM page_cache WHERE title = ?`, title).Scan(&html, &fetchedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get page: %w", err)
	}
	if s.cacheTTL > 0 && s.now().Sub(parseTime(fetchedRaw)) > s.cacheTTL {
		return "", false, nil
	}
	return html, true, nil
}

// PutPage stores or replaces the cached HTML for title.
func (s *Store) PutPage(ctx context.Context, title, html string) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO page_cache (title, html, fetched_at) VALUES (?, ?, ?)
         ON CONFLICT(title) DO UPDATE SET html = excluded.html, fetched_at = excluded.fetched_at`,
		title, html, formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("put page: %w", err)
	}
	return nil
}

// PrunePages removes cache entries fetched more than olderThan ago and
// returns how many were removed.
func (s *Store) PrunePages(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := formatTime(s.now().Add(-olderThan))
	res, err := s.execWithRetry(ctx, `DELETE FROM page_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune pages: %w", err)
	}
	return res.RowsAffected()
}
