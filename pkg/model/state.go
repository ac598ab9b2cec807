package model

// Mode is who drives the presentation.
type Mode string

const (
	ModeManual   Mode = "Manual"
	ModeAutoplay Mode = "Autoplay"
)

// Playback is the narration state. Only meaningful while in autoplay.
type Playback string

const (
	PlaybackStopped Playback = "Stopped"
	PlaybackPlaying Playback = "Playing"
	PlaybackPaused  Playback = "Paused"
)

// Phase is the sequencer state derived from Mode and Playback.
type Phase string

const (
	PhaseManual          Phase = "Manual"
	PhaseAutoplayPlaying Phase = "AutoplayPlaying"
	PhaseAutoplayPaused  Phase = "AutoplayPaused"
)

// PresentationState is the read-only snapshot a page renders its indicators from.
type PresentationState struct {
	CurrentSegmentID string   `json:"current_segment_id"`
	Mode             Mode     `json:"mode"`
	Playback         Playback `json:"playback"`
	Phase            Phase    `json:"phase"`
	ScrollLocked     bool     `json:"scroll_locked"`
	AudioProgressPct float64  `json:"audio_progress_pct"`
	AudioErrored     bool     `json:"audio_errored"`
	Muted            bool     `json:"muted"`
}

// PhaseOf maps a mode/playback pair onto the sequencer phase.
func PhaseOf(m Mode, p Playback) Phase {
	if m != ModeAutoplay {
		return PhaseManual
	}
	if p == PlaybackPaused {
		return PhaseAutoplayPaused
	}
	return PhaseAutoplayPlaying
}
