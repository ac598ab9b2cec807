// Package narration plays the spoken clip of the active segment through one reusable audio output.
package narration

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"narrascroll/pkg/audio"
	"narrascroll/pkg/clock"
	"narrascroll/pkg/logging"
)

// DefaultProgressInterval is how often progress is reported while playing.
const DefaultProgressInterval = 250 * time.Millisecond

var (
	// ErrNoNarration is returned for segments without a narration url.
	ErrNoNarration = errors.New("segment has no narration")
	// ErrPlayback wraps every load or playback failure.
	ErrPlayback = errors.New("narration playback failed")
)

// Listener receives playback events. Calls are made without any player lock held.
type Listener interface {
	OnProgress(segmentID string, pct float64)
	OnEnded(segmentID string)
	OnError(segmentID string, err error)
}

// Player owns the single audio output of a page. It never plays two clips at once:
// switching source always tears the previous one down first.
type Player struct {
	mu       sync.Mutex
	out      audio.Output
	clk      clock.Clock
	resolver *Resolver
	interval time.Duration
	listener Listener

	segmentID string
	source    string
	errored   bool
	ended     bool
	paused    bool
	muted     bool
	pct       float64
	gen       uint64
	ticker    clock.Timer
	closed    bool
}

// New creates a player. A non-positive interval uses DefaultProgressInterval.
func New(out audio.Output, clk clock.Clock, resolver *Resolver, interval time.Duration) *Player {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Player{
		out:      out,
		clk:      clk,
		resolver: resolver,
		interval: interval,
	}
}

// SetListener registers the event listener.
func (p *Player) SetListener(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = l
}

// Play loads the segment's narration and starts it. The source is only replaced when it
// differs from the loaded one, the previous attempt errored or the clip already ended;
// otherwise playback continues from the current position.
func (p *Player) Play(segmentID, narrationURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("%w: player closed", ErrPlayback)
	}

	if narrationURL == "" {
		p.stopLocked()
		p.segmentID = segmentID
		p.source = ""
		return ErrNoNarration
	}

	if narrationURL == p.source && !p.errored && !p.ended && p.out.IsBusy() {
		p.segmentID = segmentID
		if p.paused {
			p.out.Resume()
			p.paused = false
			p.scheduleTickLocked()
		}
		return nil
	}

	p.stopLocked()
	p.segmentID = segmentID
	p.source = narrationURL
	p.ended = false
	p.pct = 0

	path, err := p.resolver.Resolve(narrationURL)
	if err != nil {
		p.errored = true
		slog.Warn("Narration: cannot resolve clip", "segment", segmentID, "url", narrationURL, "error", err)
		return fmt.Errorf("%w: %w", ErrPlayback, err)
	}

	gen := p.gen
	if err := p.out.Play(path, false, func() { p.handleEnded(gen) }); err != nil {
		p.errored = true
		slog.Warn("Narration: cannot start clip", "segment", segmentID, "path", path, "error", err)
		return fmt.Errorf("%w: %w", ErrPlayback, err)
	}

	p.errored = false
	p.paused = false
	p.scheduleTickLocked()
	slog.Debug("Narration: playing", "segment", segmentID, "path", path)
	return nil
}

// Pause halts playback and keeps the position.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused || !p.out.IsBusy() {
		return
	}
	p.out.Pause()
	p.paused = true
	p.stopTickLocked()
	p.pct = p.progressLocked()
}

// Resume continues a paused clip from the same position.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.paused || !p.out.IsBusy() {
		return
	}
	p.out.Resume()
	p.paused = false
	p.scheduleTickLocked()
}

// Stop pauses and rewinds: the loaded clip is released.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// SetMuted toggles audibility without changing playback state.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
	p.out.SetMuted(muted)
}

// Close stops playback for good. Further calls to Play fail.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
	p.listener = nil
}

// Muted reports the mute flag.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Errored reports whether the last load or playback attempt failed.
func (p *Player) Errored() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errored
}

// Loaded reports whether the clip of segmentID is loaded and not finished.
func (p *Player) Loaded(segmentID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.segmentID == segmentID && p.source != "" && !p.errored && !p.ended && p.out.IsBusy()
}

// Paused reports whether a loaded clip is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Progress returns the last known playback position in percent.
func (p *Player) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused || p.ended || !p.out.IsBusy() {
		return p.pct
	}
	return p.progressLocked()
}

func (p *Player) stopLocked() {
	p.stopTickLocked()
	p.gen++
	p.out.Stop()
	p.paused = false
	p.pct = 0
}

func (p *Player) scheduleTickLocked() {
	p.stopTickLocked()
	gen := p.gen
	p.ticker = p.clk.AfterFunc(p.interval, func() { p.tick(gen) })
}

func (p *Player) stopTickLocked() {
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
}

func (p *Player) progressLocked() float64 {
	dur := p.out.Duration()
	if dur <= 0 {
		return 0
	}
	pct := float64(p.out.Position()) / float64(dur) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

func (p *Player) tick(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.paused || p.ended || p.closed {
		p.mu.Unlock()
		return
	}
	l, seg := p.listener, p.segmentID

	if err := p.out.Err(); err != nil {
		p.errored = true
		p.stopTickLocked()
		p.gen++
		p.out.Stop()
		p.mu.Unlock()
		slog.Warn("Narration: stream failed", "segment", seg, "error", err)
		if l != nil {
			l.OnError(seg, fmt.Errorf("%w: %w", ErrPlayback, err))
		}
		return
	}

	p.pct = p.progressLocked()
	pct := p.pct
	p.ticker = p.clk.AfterFunc(p.interval, func() { p.tick(gen) })
	p.mu.Unlock()

	logging.TraceDefault("Narration: progress", "segment", seg, "pct", pct)
	if l != nil {
		l.OnProgress(seg, pct)
	}
}

func (p *Player) handleEnded(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.closed {
		p.mu.Unlock()
		return
	}
	p.ended = true
	p.paused = false
	p.pct = 100
	p.stopTickLocked()
	l, seg := p.listener, p.segmentID
	p.mu.Unlock()

	if l != nil {
		l.OnProgress(seg, 100)
		l.OnEnded(seg)
	}
}
