package config

import (
	"context"
	"strconv"
	"time"

	"narrascroll/pkg/store"
)

// Provider exposes settings that may be changed at runtime and persisted.
type Provider interface {
	Muted(ctx context.Context) bool
	SetMuted(ctx context.Context, muted bool) error
	Volume(ctx context.Context) float64
	SetVolume(ctx context.Context, vol float64) error

	SettleWindow(ctx context.Context) time.Duration
	ProgressInterval(ctx context.Context) time.Duration

	// Raw access (for components that need deep access)
	AppConfig() *Config
}

// UnifiedProvider implements Provider by bridging static Config and persistent Store.
type UnifiedProvider struct {
	base  *Config
	store store.StateStore
}

// NewProvider creates a new UnifiedProvider. st may be nil.
func NewProvider(base *Config, st store.StateStore) *UnifiedProvider {
	return &UnifiedProvider{
		base:  base,
		store: st,
	}
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

func (p *UnifiedProvider) Muted(ctx context.Context) bool {
	return p.getBool(ctx, KeyMuted, p.base.Narration.Muted)
}

func (p *UnifiedProvider) SetMuted(ctx context.Context, muted bool) error {
	return p.set(ctx, KeyMuted, strconv.FormatBool(muted))
}

func (p *UnifiedProvider) Volume(ctx context.Context) float64 {
	v := p.getFloat64(ctx, KeyVolume, p.base.Narration.Volume)
	if v < 0 || v > 1 {
		return p.base.Narration.Volume
	}
	return v
}

func (p *UnifiedProvider) SetVolume(ctx context.Context, vol float64) error {
	return p.set(ctx, KeyVolume, strconv.FormatFloat(vol, 'f', -1, 64))
}

func (p *UnifiedProvider) SettleWindow(ctx context.Context) time.Duration {
	return p.base.Sequencer.SettleWindow.Std()
}

func (p *UnifiedProvider) ProgressInterval(ctx context.Context) time.Duration {
	return p.base.Narration.ProgressInterval.Std()
}

// --- Helpers ---

func (p *UnifiedProvider) set(ctx context.Context, key, val string) error {
	if p.store == nil {
		return nil
	}
	return p.store.SetState(ctx, key, val)
}

func (p *UnifiedProvider) getFloat64(ctx context.Context, key string, fallback float64) float64 {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
		}
	}
	return fallback
}

func (p *UnifiedProvider) getBool(ctx context.Context, key string, fallback bool) bool {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val == "true"
		}
	}
	return fallback
}
