package page

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"narrascroll/pkg/audio"
	"narrascroll/pkg/clock"
	"narrascroll/pkg/logging"
	"narrascroll/pkg/model"
	"narrascroll/pkg/narration"
	"narrascroll/pkg/registry"
	"narrascroll/pkg/sequencer"
)

// Prefs holds the persisted user preferences (config.Provider).
type Prefs interface {
	Muted(ctx context.Context) bool
	SetMuted(ctx context.Context, muted bool) error
}

// EventRecorder stores playback events.
type EventRecorder interface {
	RecordEvent(ctx context.Context, ev *model.PlaybackEvent) error
}

// Config holds the per-page tuning.
type Config struct {
	SettleWindow     time.Duration
	Margin           float64
	ProgressInterval time.Duration
	Timings          sequencer.Timings
	MediaRoot        string
}

// Manager mounts at most one page at a time: there is one speaker per process.
type Manager struct {
	mu      sync.Mutex
	catalog *registry.Catalog
	out     audio.Output
	clk     clock.Clock
	cfg     Config
	prefs   Prefs
	events  EventRecorder
	active  *Page
}

// NewManager creates a page manager. prefs and events may be nil.
func NewManager(catalog *registry.Catalog, out audio.Output, clk clock.Clock, cfg Config, prefs Prefs, events EventRecorder) *Manager {
	return &Manager{
		catalog: catalog,
		out:     out,
		clk:     clk,
		cfg:     cfg,
		prefs:   prefs,
		events:  events,
	}
}

// Mount creates a page for storyID, unmounting the previously active page.
func (m *Manager) Mount(ctx context.Context, storyID string) (*Page, error) {
	reg, ok := m.catalog.Get(storyID)
	if !ok {
		return nil, fmt.Errorf("%w: story %q", ErrNotFound, storyID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		slog.Info("Page: replacing active page", "page", m.active.ID, "story", m.active.StoryID)
		m.active.unmount()
		m.active = nil
	}

	id := uuid.New().String()
	player := narration.New(m.out, m.clk, narration.NewResolver(m.cfg.MediaRoot), m.cfg.ProgressInterval)
	p := newPage(pageDeps{
		id:      id,
		reg:     reg,
		player:  player,
		clk:     m.clk,
		settle:  m.cfg.SettleWindow,
		margin:  m.cfg.Margin,
		timings: m.cfg.Timings,
		muted:   m.loadMuted(ctx),
		sink:    m.recordEvent,
		onMuted: m.saveMuted,
	})
	m.active = p

	slog.Info("Page: mounted", "page", id, "story", storyID, "segments", reg.Len())
	return p, nil
}

// Get returns the page with the given id.
func (m *Manager) Get(id string) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.active.ID != id {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m.active, nil
}

// Active returns the mounted page or nil.
func (m *Manager) Active() *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Unmount tears the page down.
func (m *Manager) Unmount(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.active.ID != id {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.active.unmount()
	m.active = nil
	slog.Info("Page: unmounted", "page", id)
	return nil
}

// Shutdown unmounts the active page and releases the audio output.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		m.active.unmount()
		m.active = nil
	}
	m.out.Shutdown()
}

func (m *Manager) loadMuted(ctx context.Context) bool {
	if m.prefs == nil {
		return false
	}
	return m.prefs.Muted(ctx)
}

func (m *Manager) saveMuted(muted bool) {
	if m.prefs == nil {
		return
	}
	if err := m.prefs.SetMuted(context.Background(), muted); err != nil {
		slog.Error("Page: failed to persist mute preference", "error", err)
	}
}

func (m *Manager) recordEvent(ev model.PlaybackEvent) {
	logging.LogEvent(&ev)
	if m.events == nil {
		return
	}
	if err := m.events.RecordEvent(context.Background(), &ev); err != nil {
		slog.Error("Page: failed to record playback event", "type", ev.Type, "error", err)
	}
}
