package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// Fader scales a stream by a level in [0, 1] and ramps linearly between levels,
// so muting and unmuting do not click.
//
// Fader is not synchronized. Stream runs on the speaker goroutine under
// speaker.Lock, so FadeTo must be called with that lock held.
type Fader struct {
	Streamer beep.Streamer

	gain   float64
	target float64
	left   int // samples remaining in the current ramp
}

// NewFader returns a Fader starting at level.
func NewFader(s beep.Streamer, level float64) *Fader {
	level = clamp01(level)
	return &Fader{Streamer: s, gain: level, target: level}
}

func (f *Fader) Stream(samples [][2]float64) (int, bool) {
	n, ok := f.Streamer.Stream(samples)
	for i := range samples[:n] {
		if f.left > 0 {
			f.gain += (f.target - f.gain) / float64(f.left)
			f.left--
		} else {
			f.gain = f.target
		}
		samples[i][0] *= f.gain
		samples[i][1] *= f.gain
	}
	return n, ok
}

func (f *Fader) Err() error {
	return f.Streamer.Err()
}

// FadeTo ramps towards level over d. A non-positive d jumps on the next sample.
func (f *Fader) FadeTo(level, sampleRate float64, d time.Duration) {
	f.target = clamp01(level)
	f.left = int(sampleRate * d.Seconds())
}

// Level reports the level being faded towards.
func (f *Fader) Level() float64 {
	return f.target
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
