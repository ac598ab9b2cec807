package store

import (
	"context"
	"database/sql"
	"time"

	"narrascroll/pkg/db"
	"narrascroll/pkg/model"
)

// DefaultEventLimit caps ListEvents when no positive limit is given.
const DefaultEventLimit = 100

// Store defines the repository interface.
// It composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	StateStore
	EventStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now().UTC())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}

// --- Events ---

// RecordEvent appends ev and sets its ID.
func (s *SQLiteStore) RecordEvent(ctx context.Context, ev *model.PlaybackEvent) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO playback_events (ts, type, story_id, page_id, segment_id, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		ts.UTC(), string(ev.Type), ev.StoryID, ev.PageID, ev.SegmentID, ev.Detail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = id
	return nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, storyID string, limit int) ([]model.PlaybackEvent, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	query := `SELECT id, ts, type, story_id, page_id, segment_id, detail FROM playback_events`
	args := []any{}
	if storyID != "" {
		query += ` WHERE story_id = ?`
		args = append(args, storyID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.PlaybackEvent
	for rows.Next() {
		var (
			ev                      model.PlaybackEvent
			typ                     string
			pageID, segment, detail sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &typ, &ev.StoryID, &pageID, &segment, &detail); err != nil {
			return nil, err
		}
		ev.Type = model.PlaybackEventType(typ)
		ev.PageID = pageID.String
		ev.SegmentID = segment.String
		ev.Detail = detail.String
		events = append(events, ev)
	}
	return events, rows.Err()
}
