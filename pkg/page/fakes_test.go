package page

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"narrascroll/pkg/clock"
	"narrascroll/pkg/model"
	"narrascroll/pkg/registry"
)

// silentOutput is an audio.Output that never makes a sound.
type silentOutput struct {
	mu         sync.Mutex
	busy       bool
	paused     bool
	muted      bool
	plays      []string
	stops      int
	shutdowns  int
	onComplete func()
}

func (o *silentOutput) Play(path string, startPaused bool, onComplete func()) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.plays = append(o.plays, filepath.Base(path))
	o.busy, o.paused, o.onComplete = true, startPaused, onComplete
	return nil
}

func (o *silentOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = o.busy
}

func (o *silentOutput) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = false
}

func (o *silentOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stops++
	o.busy, o.paused, o.onComplete = false, false, nil
}

func (o *silentOutput) SetMuted(m bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.muted = m
}

func (o *silentOutput) IsBusy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

func (o *silentOutput) IsPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

func (o *silentOutput) Position() time.Duration { return 0 }
func (o *silentOutput) Duration() time.Duration { return 10 * time.Second }
func (o *silentOutput) Err() error              { return nil }

func (o *silentOutput) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.shutdowns++
}

func (o *silentOutput) isMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

func (o *silentOutput) playList() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.plays...)
}

type memPrefs struct {
	mu    sync.Mutex
	muted bool
	sets  []bool
}

func (p *memPrefs) Muted(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *memPrefs) SetMuted(ctx context.Context, muted bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
	p.sets = append(p.sets, muted)
	return nil
}

type memEvents struct {
	mu     sync.Mutex
	events []model.PlaybackEvent
}

func (e *memEvents) RecordEvent(ctx context.Context, ev *model.PlaybackEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, *ev)
	return nil
}

func (e *memEvents) types() []model.PlaybackEventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.PlaybackEventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type managerFixture struct {
	mgr    *Manager
	clk    *clock.Fake
	out    *silentOutput
	prefs  *memPrefs
	events *memEvents
}

const testSettle = time.Second

// newManagerFixture mounts nothing yet. The catalog holds "flood" (three segments,
// the middle one silent) and "quake" (one segment).
func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"hero.mp3", "impact.mp3", "quake.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	catalog, err := registry.NewCatalog(
		&model.Story{ID: "flood", Title: "The Flood", Segments: []model.Segment{
			{ID: "hero", Order: 0, NarrationURL: "hero.mp3"},
			{ID: "t1", Order: 1},
			{ID: "impact", Order: 2, NarrationURL: "impact.mp3"},
		}},
		&model.Story{ID: "quake", Title: "The Quake", Segments: []model.Segment{
			{ID: "q-hero", Order: 0, NarrationURL: "quake.mp3"},
		}},
	)
	require.NoError(t, err)

	f := &managerFixture{
		clk:    clock.NewFake(time.Unix(0, 0)),
		out:    &silentOutput{},
		prefs:  &memPrefs{},
		events: &memEvents{},
	}
	f.mgr = NewManager(catalog, f.out, f.clk, Config{
		SettleWindow:     testSettle,
		Margin:           0.1,
		ProgressInterval: 250 * time.Millisecond,
		MediaRoot:        root,
	}, f.prefs, f.events)
	t.Cleanup(f.mgr.Shutdown)
	return f
}
