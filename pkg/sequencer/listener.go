package sequencer

import (
	"log/slog"

	"narrascroll/pkg/model"
)

// OnProgress implements narration.Listener.
func (s *Sequencer) OnProgress(segmentID string, pct float64) {
	s.mu.Lock()
	if s.closed || segmentID != s.current {
		s.mu.Unlock()
		return
	}
	s.progress = pct
	s.unlockAndPublish()
}

// OnEnded implements narration.Listener. In AutoplayPlaying, outside a settle window,
// the advance follows after the ended delay.
func (s *Sequencer) OnEnded(segmentID string) {
	s.mu.Lock()
	if s.closed || segmentID != s.current || s.mode != model.ModeAutoplay {
		s.mu.Unlock()
		return
	}
	s.progress = 100
	s.narrationDone = true
	s.doneDelay = s.timings.EndedDelay
	if s.playback == model.PlaybackPlaying && !s.nav.Locked() {
		s.scheduleAdvanceLocked(s.timings.EndedDelay)
	}
	s.unlockAndPublish()
}

// OnError implements narration.Listener. A failing clip never stalls autoplay: the
// advance follows after the error delay.
func (s *Sequencer) OnError(segmentID string, err error) {
	s.mu.Lock()
	if s.closed || segmentID != s.current {
		s.mu.Unlock()
		return
	}
	s.errored = true
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	slog.Warn("Sequencer: narration failed", "segment", segmentID, "error", err)
	s.emitLocked(model.EventNarrationFailed, segmentID, detail)
	s.markDoneLocked(s.timings.ErrorDelay)
	s.unlockAndPublish()
}
