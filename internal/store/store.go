package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"

	"timelines/internal/config"
)

// Store is the SQLite-backed result store and page cache. It is safe for
// concurrent use; the pipeline writes cached pages from several goroutines.
type Store struct {
	db       *sql.DB
	path     string
	cacheTTL time.Duration
	now      func() time.Time
}

// connection pragmas go in the DSN so every pooled connection gets them.
var connectionPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// Open initializes or connects to the database at cfg.StorePath().
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.StorePath()
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db %s: %w", dbPath, err)
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		cacheTTL: cfg.CacheTTL(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range connectionPragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// sqliteBusy is SQLITE_BUSY; busy_timeout covers most contention, but a
// WAL upgrade between readers can still surface it immediately.
const sqliteBusy = 5

func isBusy(err error) bool {
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusy {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// execWithRetry runs a write, retrying briefly while the database is busy.
func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond

	return backoff.RetryWithData(func() (sql.Result, error) {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil && !isBusy(err) {
			return nil, backoff.Permanent(err)
		}
		return res, err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, 4), ctx))
}

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
