// Package visibility tracks which story segments currently sit in the central band of the viewport.
package visibility

import (
	"log/slog"
	"sync"
)

// Listener receives the in-view segment ids, in registry order, whenever the set changes.
type Listener func(inView []string)

// Observer holds the per-segment in-view signal of one page.
// It only emits signals; resolving overlaps is up to the caller.
type Observer struct {
	mu       sync.Mutex
	order    []string
	known    map[string]bool
	inView   map[string]bool
	margin   float64
	listener Listener
}

// NewObserver creates an observer for the given segment ids (in order).
func NewObserver(ids []string, margin float64) *Observer {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	order := make([]string, len(ids))
	copy(order, ids)
	return &Observer{
		order:  order,
		known:  known,
		inView: make(map[string]bool, len(ids)),
		margin: margin,
	}
}

// SetListener registers the change listener.
func (o *Observer) SetListener(l Listener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listener = l
}

// Margin returns the configured band margin.
func (o *Observer) Margin() float64 {
	return o.margin
}

// Report records a pre-computed signal for one segment. Unknown ids are ignored.
func (o *Observer) Report(id string, inView bool) {
	o.mu.Lock()
	if !o.known[id] {
		o.mu.Unlock()
		slog.Debug("Visibility: ignoring unknown segment", "segment", id)
		return
	}
	if o.inView[id] == inView {
		o.mu.Unlock()
		return
	}
	o.inView[id] = inView
	ids, l := o.snapshotLocked(), o.listener
	o.mu.Unlock()

	if l != nil {
		l(ids)
	}
}

// Measure recomputes every reported segment from viewport geometry.
// Segments missing from rects are treated as out of view.
func (o *Observer) Measure(viewportHeight float64, rects map[string]Rect) {
	band := CentralBand(viewportHeight, o.margin)

	o.mu.Lock()
	changed := false
	for _, id := range o.order {
		r, ok := rects[id]
		now := ok && band.Intersects(r)
		if o.inView[id] != now {
			o.inView[id] = now
			changed = true
		}
	}
	if !changed {
		o.mu.Unlock()
		return
	}
	ids, l := o.snapshotLocked(), o.listener
	o.mu.Unlock()

	if l != nil {
		l(ids)
	}
}

// InView returns the ids currently in view, in registry order.
func (o *Observer) InView() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Observer) snapshotLocked() []string {
	ids := make([]string, 0, len(o.order))
	for _, id := range o.order {
		if o.inView[id] {
			ids = append(ids, id)
		}
	}
	return ids
}
