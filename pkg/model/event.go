package model

import "time"

// PlaybackEventType classifies entries of the playback event log.
type PlaybackEventType string

const (
	EventPresentationStarted   PlaybackEventType = "presentation_started"
	EventSegmentEntered        PlaybackEventType = "segment_entered"
	EventNarrationFailed       PlaybackEventType = "narration_failed"
	EventPresentationPaused    PlaybackEventType = "presentation_paused"
	EventPresentationResumed   PlaybackEventType = "presentation_resumed"
	EventPresentationCompleted PlaybackEventType = "presentation_completed"
	EventPresentationStopped   PlaybackEventType = "presentation_stopped"
)

// PlaybackEvent is a notable sequencer transition, kept for the event log.
type PlaybackEvent struct {
	ID        int64             `json:"id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Type      PlaybackEventType `json:"type"`
	StoryID   string            `json:"story_id"`
	PageID    string            `json:"page_id,omitempty"`
	SegmentID string            `json:"segment_id,omitempty"`
	Detail    string            `json:"detail,omitempty"`
}
