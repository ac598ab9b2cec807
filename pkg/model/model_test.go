package model

import "testing"

func TestPhaseOf(t *testing.T) {
	tests := []struct {
		mode     Mode
		playback Playback
		want     Phase
	}{
		{ModeManual, PlaybackStopped, PhaseManual},
		{ModeManual, PlaybackPaused, PhaseManual},
		{ModeAutoplay, PlaybackPlaying, PhaseAutoplayPlaying},
		{ModeAutoplay, PlaybackPaused, PhaseAutoplayPaused},
		{ModeAutoplay, PlaybackStopped, PhaseAutoplayPlaying},
	}
	for _, tt := range tests {
		if got := PhaseOf(tt.mode, tt.playback); got != tt.want {
			t.Errorf("PhaseOf(%s, %s) = %s, want %s", tt.mode, tt.playback, got, tt.want)
		}
	}
}

func TestSegment_HasNarration(t *testing.T) {
	s := Segment{ID: "hero"}
	if s.HasNarration() {
		t.Error("segment without url should have no narration")
	}
	s.NarrationURL = "hero.mp3"
	if !s.HasNarration() {
		t.Error("segment with url should have narration")
	}
}
