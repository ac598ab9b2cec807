// Package audio provides the single reusable audio output used for narration.
package audio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is the audio resource a narration player drives.
type Output interface {
	// Play decodes the file and starts it. Any previous track is torn down first.
	// If startPaused is true, loads but pauses immediately.
	// onComplete is called when playback reaches the end (not when stopped/paused manually).
	Play(path string, startPaused bool, onComplete func()) error
	// Pause pauses current playback, keeping the position.
	Pause()
	// Resume continues from the paused position.
	Resume()
	// Stop stops playback and releases the track; the position is lost.
	Stop()
	// SetMuted silences output without touching playback state.
	SetMuted(muted bool)
	// IsBusy returns true if a track is loaded (playing or paused).
	IsBusy() bool
	// IsPaused returns true if playback is paused.
	IsPaused() bool
	// Position returns the current playback position.
	Position() time.Duration
	// Duration returns the total duration of the current track.
	Duration() time.Duration
	// Err returns a decode error raised while streaming the current track.
	Err() error
	// Shutdown stops playback and releases the speaker.
	Shutdown()
}

// Manager implements Output using gopxl/beep.
type Manager struct {
	mu                 sync.RWMutex
	ctrl               *beep.Ctrl
	volume             float64
	muted              bool
	isPaused           bool
	speakerInitialized bool
	currentSampleRate  beep.SampleRate
	fader              *Fader
	streamer           *effects.Volume
	trackStreamer      beep.StreamSeekCloser
	trackFormat        beep.Format
	generation         uint64
	muteFade           time.Duration
}

// New creates a new Manager. muteFade ramps mute/unmute to avoid clicks.
func New(volume float64, muteFade time.Duration) *Manager {
	return &Manager{
		volume:   clampVolume(volume),
		muteFade: muteFade,
	}
}

// Play starts playback of an audio file.
func (m *Manager) Play(path string, startPaused bool, onComplete func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Stop any current playback and close the file handle
	m.stopLocked()

	streamer, format, err := DecodeMedia(path)
	if err != nil {
		slog.Error("Audio: failed to decode narration", "path", path, "error", err)
		return err
	}

	if err := m.ensureSpeakerInitialized(streamer); err != nil {
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, m.currentSampleRate, streamer)

	fader := NewFader(resampled, m.muteLevel())

	volStreamer := &effects.Volume{
		Streamer: fader,
		Base:     2,
		Volume:   volumeToPower(m.volume),
		Silent:   m.volume <= 0.01,
	}

	m.fader = fader
	m.streamer = volStreamer
	m.trackStreamer = streamer
	m.trackFormat = format
	m.generation++
	gen := m.generation

	m.ctrl = &beep.Ctrl{Streamer: volStreamer, Paused: startPaused}
	m.isPaused = startPaused

	speaker.Play(beep.Seq(m.ctrl, beep.Callback(func() {
		// Leave the speaker goroutine before touching our own lock.
		go m.finish(gen, onComplete)
	})))

	if startPaused {
		slog.Debug("Audio: loaded in paused state", "path", path)
	} else {
		slog.Debug("Audio: playing", "path", path)
	}
	return nil
}

func (m *Manager) finish(gen uint64, onComplete func()) {
	m.mu.Lock()
	if gen != m.generation || m.ctrl == nil {
		m.mu.Unlock()
		return
	}
	m.ctrl = nil
	m.isPaused = false
	m.mu.Unlock()

	if onComplete != nil {
		onComplete()
	}
}

// Pause pauses current playback.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl != nil {
		speaker.Lock()
		m.ctrl.Paused = true
		speaker.Unlock()
		m.isPaused = true
	}
}

// Resume resumes paused playback.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl != nil && m.isPaused {
		speaker.Lock()
		m.ctrl.Paused = false
		speaker.Unlock()
		m.isPaused = false
	}
}

// Stop stops current playback.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.ctrl != nil {
		speaker.Clear()
		m.ctrl = nil
		m.isPaused = false
	}
	if m.trackStreamer != nil {
		m.trackStreamer.Close()
		m.trackStreamer = nil
	}
	m.fader = nil
	m.streamer = nil
	m.generation++
}

func (m *Manager) ensureSpeakerInitialized(streamer beep.StreamSeekCloser) error {
	const targetSampleRate = 48000
	if !m.speakerInitialized {
		err := speaker.Init(beep.SampleRate(targetSampleRate), beep.SampleRate(targetSampleRate).N(time.Second/10))
		if err != nil {
			streamer.Close()
			slog.Error("Audio: failed to initialize speaker", "error", err)
			return err
		}
		m.speakerInitialized = true
		m.currentSampleRate = beep.SampleRate(targetSampleRate)
	}
	return nil
}

// Shutdown stops playback and closes the speaker.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	if m.speakerInitialized {
		speaker.Close()
		m.speakerInitialized = false
	}
}

// IsPlaying returns true if audio is currently playing.
func (m *Manager) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil && !m.isPaused
}

// IsBusy returns true if audio is loaded (playing or paused).
func (m *Manager) IsBusy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil
}

// IsPaused returns true if playback is paused.
func (m *Manager) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// SetVolume sets playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.volume = clampVolume(vol)

	if m.streamer != nil {
		speaker.Lock()
		m.streamer.Volume = volumeToPower(m.volume)
		m.streamer.Silent = m.volume <= 0.01
		speaker.Unlock()
	}
}

// Volume returns current volume level.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// SetMuted fades the output out or back in.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.muted = muted
	if m.fader != nil {
		speaker.Lock()
		m.fader.FadeTo(m.muteLevel(), float64(m.currentSampleRate), m.muteFade)
		speaker.Unlock()
	}
}

func (m *Manager) muteLevel() float64 {
	if m.muted {
		return 0
	}
	return 1
}

// IsMuted reports the mute flag.
func (m *Manager) IsMuted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.muted
}

// Position returns the current playback position.
func (m *Manager) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trackStreamer == nil || m.trackFormat.SampleRate == 0 {
		return 0
	}
	speaker.Lock()
	pos := m.trackStreamer.Position()
	speaker.Unlock()
	return m.trackFormat.SampleRate.D(pos)
}

// Duration returns the total duration of the current audio.
func (m *Manager) Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trackStreamer == nil || m.trackFormat.SampleRate == 0 {
		return 0
	}
	return m.trackFormat.SampleRate.D(m.trackStreamer.Len())
}

// Err returns a streaming error of the current track, if any.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trackStreamer == nil {
		return nil
	}
	speaker.Lock()
	defer speaker.Unlock()
	return m.trackStreamer.Err()
}

func clampVolume(vol float64) float64 {
	if vol < 0 {
		return 0
	}
	if vol > 1 {
		return 1
	}
	return vol
}
