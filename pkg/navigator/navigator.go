// Package navigator scrolls a page to a segment and holds the scroll lock while the animation settles.
package navigator

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"narrascroll/pkg/clock"
)

// DefaultSettleWindow outlasts typical smooth-scroll animations.
const DefaultSettleWindow = 1000 * time.Millisecond

var (
	// ErrScrollLocked is returned when a scroll is already settling.
	ErrScrollLocked = errors.New("scroll locked")
	// ErrTargetMissing is returned when the segment anchor is not mounted.
	ErrTargetMissing = errors.New("scroll target missing")
)

// Viewport is the host page that performs the actual scrolling.
type Viewport interface {
	HasAnchor(segmentID string) bool
	ScrollIntoView(segmentID string) error
}

// Navigator issues programmatic scrolls. Only one scroll settles at a time.
type Navigator struct {
	mu       sync.Mutex
	vp       Viewport
	clk      clock.Clock
	settle   time.Duration
	locked   bool
	target   string
	timer    clock.Timer
	onChange func(locked bool)
}

// New creates a navigator. A non-positive settle window uses DefaultSettleWindow.
func New(vp Viewport, clk clock.Clock, settle time.Duration) *Navigator {
	if settle <= 0 {
		settle = DefaultSettleWindow
	}
	return &Navigator{
		vp:     vp,
		clk:    clk,
		settle: settle,
	}
}

// OnLockChange registers a callback fired whenever the lock is taken or released.
func (n *Navigator) OnLockChange(fn func(locked bool)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = fn
}

// Locked reports whether a programmatic scroll is still settling.
func (n *Navigator) Locked() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.locked
}

// Target returns the segment of the last issued scroll.
func (n *Navigator) Target() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

// ScrollTo smoothly scrolls the segment into view and locks for the settle window.
// onSettled runs after the lock has been released.
func (n *Navigator) ScrollTo(segmentID string, onSettled func()) error {
	n.mu.Lock()
	if n.locked {
		n.mu.Unlock()
		slog.Debug("Navigator: scroll rejected, still settling", "segment", segmentID)
		return ErrScrollLocked
	}
	if n.vp == nil || !n.vp.HasAnchor(segmentID) {
		n.mu.Unlock()
		slog.Warn("Navigator: scroll target not mounted", "segment", segmentID)
		return ErrTargetMissing
	}

	n.locked = true
	n.target = segmentID
	n.timer = n.clk.AfterFunc(n.settle, func() { n.release(onSettled) })
	onChange := n.onChange
	n.mu.Unlock()

	if err := n.vp.ScrollIntoView(segmentID); err != nil {
		// The lock still runs its course; the visibility signal resumes after it.
		slog.Warn("Navigator: viewport failed to scroll", "segment", segmentID, "error", err)
	}
	if onChange != nil {
		onChange(true)
	}
	return nil
}

func (n *Navigator) release(onSettled func()) {
	n.mu.Lock()
	if !n.locked {
		n.mu.Unlock()
		return
	}
	n.locked = false
	n.timer = nil
	onChange := n.onChange
	n.mu.Unlock()

	if onChange != nil {
		onChange(false)
	}
	if onSettled != nil {
		onSettled()
	}
}

// Close cancels a pending settle without firing its callback.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.locked = false
}
