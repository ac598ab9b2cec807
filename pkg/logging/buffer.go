package logging

import (
	"strings"
	"sync"
)

// Tail is an io.Writer that remembers only the last line written to it.
type Tail struct {
	mu   sync.RWMutex
	last string
}

var (
	// LatestLog holds the last INFO+ server log line.
	LatestLog = &Tail{}
	// LatestEvent holds the last playback event line.
	LatestEvent = &Tail{}
)

func (t *Tail) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\r\n")
	t.mu.Lock()
	t.last = line
	t.mu.Unlock()
	return len(p), nil
}

// Last returns the most recent line without its trailing newline.
func (t *Tail) Last() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}
