// Package page mounts story pages: each page owns its registry, observer, navigator,
// narration player and sequencer, and tears them down together.
package page

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"narrascroll/pkg/clock"
	"narrascroll/pkg/model"
	"narrascroll/pkg/narration"
	"narrascroll/pkg/navigator"
	"narrascroll/pkg/registry"
	"narrascroll/pkg/sequencer"
	"narrascroll/pkg/visibility"
)

// Control actions accepted by Page.Control.
const (
	ActionToggle = "toggle"
	ActionStart  = "start"
	ActionStop   = "stop"
	ActionNext   = "next"
	ActionPrev   = "prev"
	ActionMute   = "mute"
)

var (
	// ErrNotFound is returned for unknown page or story ids.
	ErrNotFound = errors.New("page not found")
	// ErrUnknownAction is returned for unsupported control actions.
	ErrUnknownAction = errors.New("unknown control action")
)

// Page is one mounted story page.
type Page struct {
	ID        string
	StoryID   string
	CreatedAt time.Time

	reg     *registry.Registry
	obs     *visibility.Observer
	nav     *navigator.Navigator
	player  *narration.Player
	seq     *sequencer.Sequencer
	surface *Surface
}

type pageDeps struct {
	id      string
	reg     *registry.Registry
	player  *narration.Player
	clk     clock.Clock
	settle  time.Duration
	margin  float64
	timings sequencer.Timings
	muted   bool
	sink    sequencer.EventSink
	onMuted func(bool)
}

func newPage(d pageDeps) *Page {
	surface := NewSurface(d.reg)
	obs := visibility.NewObserver(d.reg.IDs(), d.margin)
	nav := navigator.New(surface, d.clk, d.settle)
	seq := sequencer.New(d.reg, nav, d.player, d.clk, sequencer.Options{
		Timings: d.timings,
		PageID:  d.id,
		Sink:    d.sink,
		Muted:   d.muted,
	})

	d.player.SetListener(seq)
	obs.SetListener(seq.OnVisibilityChange)
	nav.OnLockChange(func(locked bool) {
		surface.Broadcast(Message{Type: MsgLock, Locked: &locked})
	})

	var muteMu sync.Mutex
	lastMuted := d.muted
	seq.Subscribe(func(st model.PresentationState) {
		surface.Broadcast(Message{Type: MsgState, State: &st})

		muteMu.Lock()
		changed := st.Muted != lastMuted
		lastMuted = st.Muted
		muteMu.Unlock()
		if changed && d.onMuted != nil {
			d.onMuted(st.Muted)
		}
	})

	return &Page{
		ID:        d.id,
		StoryID:   d.reg.StoryID(),
		CreatedAt: d.clk.Now(),
		reg:       d.reg,
		obs:       obs,
		nav:       nav,
		player:    d.player,
		seq:       seq,
		surface:   surface,
	}
}

// Registry returns the page's segments.
func (p *Page) Registry() *registry.Registry { return p.reg }

// Observer returns the visibility observer fed by the page's clients.
func (p *Page) Observer() *visibility.Observer { return p.obs }

// Sequencer returns the presentation state machine.
func (p *Page) Sequencer() *sequencer.Sequencer { return p.seq }

// Surface returns the client fan-out.
func (p *Page) Surface() *Surface { return p.surface }

// State returns the current presentation state.
func (p *Page) State() model.PresentationState { return p.seq.State() }

// Control applies a control-surface action.
func (p *Page) Control(action string) error {
	switch action {
	case ActionToggle:
		p.seq.StartOrToggle()
	case ActionStart:
		p.seq.StartPresentation()
	case ActionStop:
		p.seq.StopPresentation()
	case ActionNext:
		p.seq.Advance()
	case ActionPrev:
		p.seq.Retreat()
	case ActionMute:
		p.seq.ToggleMute()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return nil
}

// Attach registers a client and immediately sends it the current state.
func (p *Page) Attach(send func(Message)) func() {
	detach := p.surface.Attach(send)
	st := p.seq.State()
	send(Message{Type: MsgState, State: &st})
	return detach
}

// unmount stops narration, cancels timers and releases the audio resource.
func (p *Page) unmount() {
	p.seq.Close()
}
