package sequencer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"narrascroll/pkg/clock"
	"narrascroll/pkg/model"
	"narrascroll/pkg/narration"
	"narrascroll/pkg/navigator"
	"narrascroll/pkg/registry"
)

// fakeOutput stands in for the speaker.
type fakeOutput struct {
	mu         sync.Mutex
	loaded     string
	busy       bool
	paused     bool
	muted      bool
	pos        time.Duration
	dur        time.Duration
	streamErr  error
	onComplete func()
	plays      []string
}

func (f *fakeOutput) Play(path string, startPaused bool, onComplete func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, filepath.Base(path))
	f.loaded, f.busy, f.paused, f.pos = path, true, startPaused, 0
	f.streamErr = nil
	f.onComplete = onComplete
	return nil
}

func (f *fakeOutput) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = f.busy
}

func (f *fakeOutput) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
}

func (f *fakeOutput) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded, f.busy, f.paused, f.pos = "", false, false, 0
	f.onComplete = nil
}

func (f *fakeOutput) SetMuted(m bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = m
}

func (f *fakeOutput) IsBusy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *fakeOutput) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *fakeOutput) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *fakeOutput) Duration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dur
}

func (f *fakeOutput) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamErr
}

func (f *fakeOutput) Shutdown() {}

func (f *fakeOutput) seek(pos time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = pos
}

func (f *fakeOutput) fail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamErr = errors.New("corrupt frame")
}

// finish runs the loaded clip to its end.
func (f *fakeOutput) finish() {
	f.mu.Lock()
	cb := f.onComplete
	f.busy, f.pos, f.onComplete = false, f.dur, nil
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (f *fakeOutput) playList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.plays...)
}

type fakeViewport struct {
	mu       sync.Mutex
	missing  map[string]bool
	scrolled []string
}

func (v *fakeViewport) HasAnchor(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.missing[id]
}

func (v *fakeViewport) ScrollIntoView(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolled = append(v.scrolled, id)
	return nil
}

type fixture struct {
	t      *testing.T
	seq    *Sequencer
	reg    *registry.Registry
	clk    *clock.Fake
	out    *fakeOutput
	vp     *fakeViewport
	mu     sync.Mutex
	events []model.PlaybackEvent
}

const settle = time.Second

// newFixture builds a sequencer over real navigator and narration components.
// Narration urls named "missing*" are not created on disk.
func newFixture(t *testing.T, segs ...model.Segment) *fixture {
	t.Helper()
	root := t.TempDir()
	for i := range segs {
		segs[i].Order = i
		u := segs[i].NarrationURL
		if u == "" || strings.HasPrefix(u, "missing") {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(root, u), []byte("x"), 0o644))
	}
	reg, err := registry.New(&model.Story{ID: "story", Title: "Story", Segments: segs})
	require.NoError(t, err)

	f := &fixture{
		t:   t,
		reg: reg,
		clk: clock.NewFake(time.Unix(0, 0)),
		out: &fakeOutput{dur: 10 * time.Second},
		vp:  &fakeViewport{missing: map[string]bool{}},
	}
	nav := navigator.New(f.vp, f.clk, settle)
	player := narration.New(f.out, f.clk, narration.NewResolver(root), 250*time.Millisecond)
	f.seq = New(reg, nav, player, f.clk, Options{
		PageID: "page-1",
		Sink: func(ev model.PlaybackEvent) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.events = append(f.events, ev)
		},
	})
	player.SetListener(f.seq)
	t.Cleanup(f.seq.Close)
	return f
}

func seg(id, url string) model.Segment {
	return model.Segment{ID: id, NarrationURL: url}
}

func (f *fixture) state() model.PresentationState {
	st := f.seq.State()
	require.True(f.t, f.reg.Contains(st.CurrentSegmentID), "current segment %q not in registry", st.CurrentSegmentID)
	return st
}

func (f *fixture) eventTypes() []model.PlaybackEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PlaybackEventType
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

func (f *fixture) countEvents(typ model.PlaybackEventType) int {
	n := 0
	for _, et := range f.eventTypes() {
		if et == typ {
			n++
		}
	}
	return n
}
