package page

import (
	"log/slog"
	"sync"

	"narrascroll/pkg/model"
	"narrascroll/pkg/registry"
)

// Message types exchanged with attached browser clients.
const (
	MsgState  = "state"
	MsgScroll = "scroll"
	MsgLock   = "lock"
)

// Message is an outbound notification for attached clients.
type Message struct {
	Type    string                   `json:"type"`
	State   *model.PresentationState `json:"state,omitempty"`
	Segment string                   `json:"segment,omitempty"`
	Locked  *bool                    `json:"locked,omitempty"`
}

// Surface is the page as rendered by its browser clients. It implements the
// navigator's Viewport by fanning scroll commands out to every attached client.
// Send functions must not block.
type Surface struct {
	mu      sync.RWMutex
	reg     *registry.Registry
	anchors map[string]bool
	clients map[int]func(Message)
	nextID  int
}

// NewSurface creates a surface. Until a client reports its anchors, every
// registered segment counts as mounted.
func NewSurface(reg *registry.Registry) *Surface {
	return &Surface{
		reg:     reg,
		clients: make(map[int]func(Message)),
	}
}

// SetAnchors records the segment anchors a client has mounted. Unknown ids are dropped.
func (s *Surface) SetAnchors(ids []string) {
	anchors := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s.reg.Contains(id) {
			anchors[id] = true
		}
	}
	s.mu.Lock()
	s.anchors = anchors
	s.mu.Unlock()
	slog.Debug("Surface: anchors reported", "count", len(anchors), "registered", s.reg.Len())
}

// HasAnchor implements navigator.Viewport.
func (s *Surface) HasAnchor(id string) bool {
	if !s.reg.Contains(id) {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.anchors == nil {
		return true
	}
	return s.anchors[id]
}

// ScrollIntoView implements navigator.Viewport.
func (s *Surface) ScrollIntoView(id string) error {
	s.Broadcast(Message{Type: MsgScroll, Segment: id})
	return nil
}

// Attach registers a client. The returned func detaches it.
func (s *Surface) Attach(send func(Message)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.clients[id] = send
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.clients, id)
		s.mu.Unlock()
	}
}

// Clients returns the number of attached clients.
func (s *Surface) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends m to every attached client.
func (s *Surface) Broadcast(m Message) {
	s.mu.RLock()
	sends := make([]func(Message), 0, len(s.clients))
	for _, fn := range s.clients {
		sends = append(sends, fn)
	}
	s.mu.RUnlock()

	for _, fn := range sends {
		fn(m)
	}
}
