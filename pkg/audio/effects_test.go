package audio

import (
	"testing"
	"time"
)

type dummyStreamer struct {
	samples [][2]float64
	pos     int
}

func (s *dummyStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n = copy(samples, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *dummyStreamer) Err() error { return nil }

func constant(n int) *dummyStreamer {
	input := make([][2]float64, n)
	for i := range input {
		input[i] = [2]float64{1.0, 1.0}
	}
	return &dummyStreamer{samples: input}
}

func TestFader_FadeOut(t *testing.T) {
	// 100 samples at 1kHz: a 100ms fade spans the whole buffer.
	f := NewFader(constant(100), 1.0)
	f.FadeTo(0, 1000, 100*time.Millisecond)

	out := make([][2]float64, 100)
	n, ok := f.Stream(out)
	if n != 100 || !ok {
		t.Fatalf("expected 100 samples, got %d (ok=%v)", n, ok)
	}

	if out[0][0] >= 1.0 || out[0][0] <= 0.9 {
		t.Errorf("expected first sample just below 1.0, got %f", out[0][0])
	}
	for i := 1; i < 100; i++ {
		if out[i][0] > out[i-1][0] {
			t.Fatalf("gain rose at sample %d during a fade out", i)
		}
	}
	if out[99][0] != 0 {
		t.Errorf("expected silence at end of fade, got %f", out[99][0])
	}
}

func TestFader_InstantJump(t *testing.T) {
	f := NewFader(constant(10), 1.0)
	f.FadeTo(0, 48000, 0)

	out := make([][2]float64, 10)
	f.Stream(out)
	for i, s := range out {
		if s[0] != 0 || s[1] != 0 {
			t.Fatalf("sample %d not silent: %v", i, s)
		}
	}
}

func TestFader_Clamp(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		fade  float64
		want  float64
	}{
		{"above one", 0.5, 3, 1},
		{"below zero", 1, -2, 0},
		{"start clamped", 7, 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFader(constant(4), tt.start)
			f.FadeTo(tt.fade, 1000, 0)
			if f.Level() != tt.want {
				t.Errorf("Level() = %v, want %v", f.Level(), tt.want)
			}
			out := make([][2]float64, 4)
			f.Stream(out)
			if out[3][0] != tt.want {
				t.Errorf("last sample = %v, want %v", out[3][0], tt.want)
			}
		})
	}
}
