package store

import (
	"context"

	"narrascroll/pkg/model"
)

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// EventStore handles the playback event log.
type EventStore interface {
	RecordEvent(ctx context.Context, ev *model.PlaybackEvent) error
	// ListEvents returns the newest events first. An empty storyID matches every story.
	ListEvents(ctx context.Context, storyID string, limit int) ([]model.PlaybackEvent, error)
}
