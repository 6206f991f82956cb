package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Result is one persisted matching run for a video. Payload holds the full
// JSON-encoded run output.
type Result struct {
	ID           int64
	VideoID      string
	RunID        string
	Source       string
	EventCount   int
	MatchedCount int
	Payload      json.RawMessage
	CreatedAt    time.Time
}

const resultColumns = "id, video_id, run_id, source, event_count, matched_count, payload_json, created_at"

// SaveResult inserts r and fills in its ID and CreatedAt.
func (s *Store) SaveResult(ctx context.Context, r *Result) error {
	if r == nil {
		return errors.New("result is nil")
	}
	if strings.TrimSpace(r.VideoID) == "" || strings.TrimSpace(r.RunID) == "" {
		return errors.New("result requires video id and run id")
	}
	if len(r.Payload) == 0 || !json.Valid(r.Payload) {
		return errors.New("result payload must be valid JSON")
	}
	r.CreatedAt = s.now()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO video_results (video_id, run_id, source, event_count, matched_count, payload_json, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.VideoID,
		r.RunID,
		nullableString(r.Source),
		r.EventCount,
		r.MatchedCount,
		string(r.Payload),
		formatTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return nil
}

// LatestResult returns the most recent result for videoID, or nil when the
// video has never been processed.
func (s *Store) LatestResult(ctx context.Context, videoID string) (*Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM video_results WHERE video_id = ? ORDER BY id DESC LIMIT 1`,
		videoID,
	)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest result: %w", err)
	}
	return r, nil
}

// ListResults returns the newest results first, at most limit of them when
// limit is positive. Payloads are omitted.
func (s *Store) ListResults(ctx context.Context, limit int) ([]Result, error) {
	query := `SELECT id, video_id, run_id, source, event_count, matched_count, '{}', created_at
              FROM video_results ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Payload = nil
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func scanResult(scanner interface{ Scan(dest ...any) error }) (*Result, error) {
	var (
		r          Result
		source     sql.NullString
		payload    string
		createdRaw string
	)
	if err := scanner.Scan(&r.ID, &r.VideoID, &r.RunID, &source, &r.EventCount, &r.MatchedCount, &payload, &createdRaw); err != nil {
		return nil, err
	}
	r.Source = source.String
	r.Payload = json.RawMessage(payload)
	r.CreatedAt = parseTime(createdRaw)
	return &r, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
