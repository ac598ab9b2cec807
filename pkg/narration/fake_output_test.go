package narration

import (
	"errors"
	"sync"
	"time"
)

type fakeOutput struct {
	mu         sync.Mutex
	loaded     string
	busy       bool
	paused     bool
	muted      bool
	pos        time.Duration
	dur        time.Duration
	playErr    error
	streamErr  error
	onComplete func()
	plays      []string
	stops      int
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{dur: 10 * time.Second}
}

func (f *fakeOutput) Play(path string, startPaused bool, onComplete func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, path)
	if f.playErr != nil {
		return f.playErr
	}
	f.loaded = path
	f.busy = true
	f.paused = startPaused
	f.pos = 0
	f.streamErr = nil
	f.onComplete = onComplete
	return nil
}

func (f *fakeOutput) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		f.paused = true
	}
}

func (f *fakeOutput) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
}

func (f *fakeOutput) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.busy = false
	f.paused = false
	f.loaded = ""
	f.pos = 0
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

// seek moves the playhead of the loaded clip.
func (f *fakeOutput) seek(pos time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = pos
}

// finish simulates the clip running to its end.
func (f *fakeOutput) finish() {
	f.mu.Lock()
	cb := f.onComplete
	f.busy = false
	f.pos = f.dur
	f.onComplete = nil
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (f *fakeOutput) fail(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamErr = errors.New(msg)
}

func (f *fakeOutput) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plays)
}

type recordingListener struct {
	mu       sync.Mutex
	progress []float64
	ended    []string
	errs     []string
}

func (r *recordingListener) OnProgress(_ string, pct float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, pct)
}

func (r *recordingListener) OnEnded(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, id)
}

func (r *recordingListener) OnError(id string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, id)
}
