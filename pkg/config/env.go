package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NARRASCROLL_"

// envOverrides lists the settings that may be overridden from the environment.
// Unset variables keep the value loaded from the file.
type envOverrides struct {
	Address      string   `env:"ADDRESS"`
	LogLevel     string   `env:"LOG_LEVEL"`
	DBPath       string   `env:"DB_PATH"`
	StoriesDir   string   `env:"STORIES_DIR"`
	MediaRoot    string   `env:"MEDIA_ROOT"`
	Volume       float64  `env:"VOLUME"`
	Muted        bool     `env:"MUTED"`
	SettleWindow Duration `env:"SETTLE_WINDOW"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv overlays NARRASCROLL_* variables onto cfg.
func ApplyEnv(cfg *Config) error {
	o := envOverrides{
		Address:      cfg.Server.Address,
		LogLevel:     cfg.Log.Server.Level,
		DBPath:       cfg.DB.Path,
		StoriesDir:   cfg.Stories.Dir,
		MediaRoot:    cfg.Stories.MediaRoot,
		Volume:       cfg.Narration.Volume,
		Muted:        cfg.Narration.Muted,
		SettleWindow: cfg.Sequencer.SettleWindow,
	}
	if err := ParseEnv(&o); err != nil {
		return err
	}

	cfg.Server.Address = o.Address
	cfg.Log.Server.Level = o.LogLevel
	cfg.DB.Path = o.DBPath
	cfg.Stories.Dir = o.StoriesDir
	cfg.Stories.MediaRoot = o.MediaRoot
	cfg.Narration.Volume = o.Volume
	cfg.Narration.Muted = o.Muted
	cfg.Sequencer.SettleWindow = o.SettleWindow
	return nil
}
