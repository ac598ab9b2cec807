// Package sequencer drives a story page: it decides the current segment, when to scroll
// and when narration plays. One Sequencer instance belongs to one mounted page.
package sequencer

import (
	"sync"
	"time"

	"narrascroll/pkg/clock"
	"narrascroll/pkg/model"
	"narrascroll/pkg/registry"
)

// Navigator scrolls the page. ScrollTo must not invoke onSettled synchronously.
type Navigator interface {
	ScrollTo(segmentID string, onSettled func()) error
	Locked() bool
	Close()
}

// Player is the narration output. All audio goes through it.
type Player interface {
	Play(segmentID, narrationURL string) error
	Pause()
	Resume()
	Stop()
	SetMuted(muted bool)
	Loaded(segmentID string) bool
	Progress() float64
	Close()
}

// EventSink receives playback events outside the sequencer lock.
type EventSink func(model.PlaybackEvent)

// Timings are the named delays of the state machine.
type Timings struct {
	EndedDelay time.Duration // narration ended -> advance
	ErrorDelay time.Duration // narration failed -> advance
	DwellDelay time.Duration // segment without narration -> advance
}

// DefaultTimings returns the stock delays.
func DefaultTimings() Timings {
	return Timings{
		EndedDelay: 500 * time.Millisecond,
		ErrorDelay: 2000 * time.Millisecond,
		DwellDelay: 3 * time.Second,
	}
}

func (t Timings) withDefaults() Timings {
	d := DefaultTimings()
	if t.EndedDelay <= 0 {
		t.EndedDelay = d.EndedDelay
	}
	if t.ErrorDelay <= 0 {
		t.ErrorDelay = d.ErrorDelay
	}
	if t.DwellDelay <= 0 {
		t.DwellDelay = d.DwellDelay
	}
	return t
}

// Options configure a Sequencer.
type Options struct {
	Timings Timings
	PageID  string
	Sink    EventSink
	Muted   bool
}

// Sequencer is the presentation state machine (Manual, AutoplayPlaying, AutoplayPaused).
type Sequencer struct {
	mu      sync.Mutex
	reg     *registry.Registry
	nav     Navigator
	player  Player
	clk     clock.Clock
	timings Timings
	pageID  string
	sink    EventSink

	current  string
	mode     model.Mode
	playback model.Playback
	progress float64
	errored  bool
	muted    bool

	// narrationDone is set once the current clip ended or failed, or the segment has none.
	narrationDone bool
	doneDelay     time.Duration

	inView  []string
	pending clock.Timer
	epoch   uint64
	closed  bool

	subs    map[int]func(model.PresentationState)
	nextSub int
	outbox  []model.PlaybackEvent
}

// New creates a sequencer in Manual mode on the first segment.
func New(reg *registry.Registry, nav Navigator, player Player, clk clock.Clock, opts Options) *Sequencer {
	s := &Sequencer{
		reg:      reg,
		nav:      nav,
		player:   player,
		clk:      clk,
		timings:  opts.Timings.withDefaults(),
		pageID:   opts.PageID,
		sink:     opts.Sink,
		current:  reg.First().ID,
		mode:     model.ModeManual,
		playback: model.PlaybackStopped,
		muted:    opts.Muted,
		subs:     make(map[int]func(model.PresentationState)),
	}
	if s.muted {
		player.SetMuted(true)
	}
	return s
}

// Registry returns the segment registry the sequencer runs over.
func (s *Sequencer) Registry() *registry.Registry { return s.reg }

// Timings returns the effective delays.
func (s *Sequencer) Timings() Timings { return s.timings }

// State returns the current presentation snapshot.
func (s *Sequencer) State() model.PresentationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every state change. The returned func unsubscribes.
func (s *Sequencer) Subscribe(fn func(model.PresentationState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Close tears the sequencer down: pending advances are cancelled, narration stops and
// the audio resource is released. Every later call is a no-op.
func (s *Sequencer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.epoch++
	s.cancelPendingLocked()
	s.subs = make(map[int]func(model.PresentationState))
	s.outbox = nil
	s.mu.Unlock()

	s.player.Close()
	s.nav.Close()
}

func (s *Sequencer) snapshotLocked() model.PresentationState {
	return model.PresentationState{
		CurrentSegmentID: s.current,
		Mode:             s.mode,
		Playback:         s.playback,
		Phase:            model.PhaseOf(s.mode, s.playback),
		ScrollLocked:     s.nav.Locked(),
		AudioProgressPct: s.progress,
		AudioErrored:     s.errored,
		Muted:            s.muted,
	}
}

// unlockAndPublish releases the lock, then delivers queued events and the new state.
func (s *Sequencer) unlockAndPublish() {
	st := s.snapshotLocked()
	events := s.outbox
	s.outbox = nil
	sink := s.sink
	subs := make([]func(model.PresentationState), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if sink != nil {
		for _, ev := range events {
			sink(ev)
		}
	}
	for _, fn := range subs {
		fn(st)
	}
}

func (s *Sequencer) emitLocked(typ model.PlaybackEventType, segmentID, detail string) {
	s.outbox = append(s.outbox, model.PlaybackEvent{
		Timestamp: s.clk.Now(),
		Type:      typ,
		StoryID:   s.reg.StoryID(),
		PageID:    s.pageID,
		SegmentID: segmentID,
		Detail:    detail,
	})
}

func (s *Sequencer) cancelPendingLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// scheduleAdvanceLocked replaces any pending advance. At most one exists.
func (s *Sequencer) scheduleAdvanceLocked(d time.Duration) {
	s.cancelPendingLocked()
	ep := s.epoch
	var t clock.Timer
	t = s.clk.AfterFunc(d, func() { s.timedAdvance(ep, t) })
	s.pending = t
}

func (s *Sequencer) timedAdvance(ep uint64, t clock.Timer) {
	s.mu.Lock()
	if s.closed || ep != s.epoch || s.pending != t {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.advanceLocked()
	s.unlockAndPublish()
}
