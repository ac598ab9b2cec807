package sequencer

import (
	"errors"
	"log/slog"
	"time"

	"narrascroll/pkg/model"
	"narrascroll/pkg/navigator"
)

// StartPresentation resets to the first segment and starts autoplay. Narration begins
// once the scroll to the first segment has settled. Ignored while a scroll is settling.
func (s *Sequencer) StartPresentation() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.startLocked()
	s.unlockAndPublish()
}

// TogglePlayPause pauses or resumes autoplay. In Manual mode it starts the presentation.
func (s *Sequencer) TogglePlayPause() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	switch model.PhaseOf(s.mode, s.playback) {
	case model.PhaseManual:
		s.startLocked()
	case model.PhaseAutoplayPlaying:
		s.pauseLocked()
	case model.PhaseAutoplayPaused:
		s.resumeLocked()
	}
	s.unlockAndPublish()
}

// StartOrToggle is the single play/pause control of the page.
func (s *Sequencer) StartOrToggle() { s.TogglePlayPause() }

// Advance moves to the next segment. Blocked while a scroll settles or autoplay is paused.
// Past the last segment autoplay ends in Manual/Stopped.
func (s *Sequencer) Advance() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.advanceLocked()
	s.unlockAndPublish()
}

// Retreat moves to the previous segment in any mode. Blocked while a scroll settles.
func (s *Sequencer) Retreat() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.nav.Locked() {
		slog.Debug("Sequencer: retreat ignored, scroll settling", "segment", s.current)
		s.mu.Unlock()
		return
	}
	if prev, ok := s.reg.Prev(s.current); ok {
		s.transitionLocked(prev.ID)
	}
	s.unlockAndPublish()
}

// StopPresentation stops narration, rewinds it and returns to Manual. A scroll that is
// still settling is left to finish on its own.
func (s *Sequencer) StopPresentation() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	wasAutoplay := s.mode == model.ModeAutoplay
	s.epoch++
	s.cancelPendingLocked()
	s.player.Stop()
	s.mode = model.ModeManual
	s.playback = model.PlaybackStopped
	s.progress = 0
	if wasAutoplay {
		s.emitLocked(model.EventPresentationStopped, s.current, "")
		slog.Info("Sequencer: presentation stopped", "story", s.reg.StoryID(), "segment", s.current)
	}
	s.unlockAndPublish()
}

// ToggleMute flips audibility. Playback state is unaffected.
func (s *Sequencer) ToggleMute() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.setMutedLocked(!s.muted)
	s.unlockAndPublish()
}

// SetMuted sets audibility explicitly.
func (s *Sequencer) SetMuted(muted bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.setMutedLocked(muted)
	s.unlockAndPublish()
}

// OnVisibilityChange receives the ids currently in view. In Manual mode, outside a
// settle window, the furthest in-view segment (highest order) becomes current.
func (s *Sequencer) OnVisibilityChange(inView []string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inView = append(s.inView[:0], inView...)
	if s.mode == model.ModeManual && !s.nav.Locked() {
		s.resolveVisibleLocked()
	}
	s.unlockAndPublish()
}

func (s *Sequencer) setMutedLocked(muted bool) {
	s.muted = muted
	s.player.SetMuted(muted)
}

func (s *Sequencer) startLocked() {
	if s.nav.Locked() {
		slog.Debug("Sequencer: start ignored, scroll settling")
		return
	}
	s.cancelPendingLocked()
	s.player.Stop()
	s.mode = model.ModeAutoplay
	s.playback = model.PlaybackPlaying
	s.errored = false

	first := s.reg.First()
	s.emitLocked(model.EventPresentationStarted, first.ID, "")
	slog.Info("Sequencer: presentation started", "story", s.reg.StoryID(), "page", s.pageID)
	s.transitionLocked(first.ID)
}

func (s *Sequencer) pauseLocked() {
	s.playback = model.PlaybackPaused
	s.cancelPendingLocked()
	s.player.Pause()
	if s.player.Loaded(s.current) {
		s.progress = s.player.Progress()
	}
	s.emitLocked(model.EventPresentationPaused, s.current, "")
}

func (s *Sequencer) resumeLocked() {
	s.playback = model.PlaybackPlaying
	s.emitLocked(model.EventPresentationResumed, s.current, "")

	switch {
	case s.nav.Locked():
		// The settle callback starts narration.
	case s.narrationDone:
		s.scheduleAdvanceLocked(s.doneDelay)
	case s.player.Loaded(s.current):
		s.player.Resume()
	default:
		s.startNarrationLocked()
	}
}

func (s *Sequencer) advanceLocked() {
	if s.nav.Locked() {
		slog.Debug("Sequencer: advance ignored, scroll settling", "segment", s.current)
		return
	}
	if s.mode == model.ModeAutoplay && s.playback == model.PlaybackPaused {
		return
	}

	next, ok := s.reg.Next(s.current)
	if !ok {
		if s.mode == model.ModeAutoplay {
			s.completeLocked()
		}
		return
	}
	s.transitionLocked(next.ID)
}

func (s *Sequencer) completeLocked() {
	s.epoch++
	s.cancelPendingLocked()
	s.player.Stop()
	s.mode = model.ModeManual
	s.playback = model.PlaybackStopped
	s.emitLocked(model.EventPresentationCompleted, s.current, "")
	slog.Info("Sequencer: presentation completed", "story", s.reg.StoryID(), "segment", s.current)
}

// transitionLocked scrolls to id and makes it current. A missing anchor is a no-op in
// Manual mode; in autoplay the segment is skipped after the error delay.
func (s *Sequencer) transitionLocked(id string) {
	ep := s.epoch + 1
	err := s.nav.ScrollTo(id, func() { s.onSettled(id, ep) })
	missing := errors.Is(err, navigator.ErrTargetMissing)
	if err != nil && (!missing || s.mode != model.ModeAutoplay) {
		slog.Debug("Sequencer: transition rejected", "segment", id, "error", err)
		return
	}

	s.epoch = ep
	s.cancelPendingLocked()
	s.player.Stop()
	s.current = id
	s.progress = 0
	s.errored = false
	s.narrationDone = false
	s.emitLocked(model.EventSegmentEntered, id, string(s.mode))

	if missing {
		slog.Warn("Sequencer: segment anchor missing, skipping", "segment", id)
		s.markDoneLocked(s.timings.ErrorDelay)
	}
}

// onSettled runs once the scroll to id settled. Visibility is trustworthy again.
func (s *Sequencer) onSettled(id string, ep uint64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	switch {
	case s.mode == model.ModeManual:
		s.resolveVisibleLocked()
	case ep == s.epoch && s.current == id && s.playback == model.PlaybackPlaying:
		s.startNarrationLocked()
	}
	s.unlockAndPublish()
}

func (s *Sequencer) startNarrationLocked() {
	seg, ok := s.reg.Get(s.current)
	if !ok {
		return
	}
	if !seg.HasNarration() {
		s.player.Stop()
		s.markDoneLocked(s.timings.DwellDelay)
		return
	}

	s.narrationDone = false
	if err := s.player.Play(seg.ID, seg.NarrationURL); err != nil {
		s.errored = true
		s.emitLocked(model.EventNarrationFailed, seg.ID, err.Error())
		s.markDoneLocked(s.timings.ErrorDelay)
	}
}

// markDoneLocked records that the current segment needs no more narration and, while
// autoplay is playing, schedules the advance after d.
func (s *Sequencer) markDoneLocked(d time.Duration) {
	s.narrationDone = true
	s.doneDelay = d
	if s.mode == model.ModeAutoplay && s.playback == model.PlaybackPlaying {
		s.scheduleAdvanceLocked(d)
	}
}

func (s *Sequencer) resolveVisibleLocked() {
	best, bestOrder := "", -1
	for _, id := range s.inView {
		if o := s.reg.OrderOf(id); o > bestOrder {
			best, bestOrder = id, o
		}
	}
	if best == "" || best == s.current {
		return
	}
	s.current = best
	s.progress = 0
	s.errored = false
	s.narrationDone = false
	s.emitLocked(model.EventSegmentEntered, best, string(s.mode))
}
