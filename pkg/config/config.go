package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	DB         DBConfig         `yaml:"db"`
	Stories    StoriesConfig    `yaml:"stories"`
	Sequencer  SequencerConfig  `yaml:"sequencer"`
	Visibility VisibilityConfig `yaml:"visibility"`
	Narration  NarrationConfig  `yaml:"narration"`
	Viewer     ViewerConfig     `yaml:"viewer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Events   LogSettings `yaml:"events"`
	Trace    bool        `yaml:"trace"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path           string   `yaml:"path"`
	EventRetention Duration `yaml:"event_retention"`
}

// StoriesConfig locates the story files and their media.
type StoriesConfig struct {
	Dir       string `yaml:"dir"`
	MediaRoot string `yaml:"media_root"`
}

// SequencerConfig holds the presentation timings.
type SequencerConfig struct {
	SettleWindow Duration `yaml:"settle_window"`
	EndedDelay   Duration `yaml:"ended_delay"`
	ErrorDelay   Duration `yaml:"error_delay"`
	DwellDelay   Duration `yaml:"dwell_delay"`
}

// VisibilityConfig holds the in-view band settings.
type VisibilityConfig struct {
	Margin float64 `yaml:"margin"`
}

// NarrationConfig holds audio output settings.
type NarrationConfig struct {
	ProgressInterval Duration `yaml:"progress_interval"`
	Volume           float64  `yaml:"volume"`
	Muted            bool     `yaml:"muted"`
	MuteFade         Duration `yaml:"mute_fade"`
	ProbeWorkers     int      `yaml:"probe_workers"`
}

// ViewerConfig holds the kiosk window settings.
type ViewerConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Debug  bool   `yaml:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:1940",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "logs/requests.log",
				Level: "INFO",
			},
			Events: LogSettings{
				Path:  "logs/events.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path:           "data/narrascroll.db",
			EventRetention: Duration(30 * Day),
		},
		Stories: StoriesConfig{
			Dir:       "configs/stories",
			MediaRoot: "media",
		},
		Sequencer: SequencerConfig{
			SettleWindow: Duration(1000 * time.Millisecond),
			EndedDelay:   Duration(500 * time.Millisecond),
			ErrorDelay:   Duration(2000 * time.Millisecond),
			DwellDelay:   Duration(3 * time.Second),
		},
		Visibility: VisibilityConfig{
			Margin: 0.10,
		},
		Narration: NarrationConfig{
			ProgressInterval: Duration(250 * time.Millisecond),
			Volume:           1.0,
			Muted:            false,
			MuteFade:         Duration(150 * time.Millisecond),
			ProbeWorkers:     4,
		},
		Viewer: ViewerConfig{
			Title:  "Narrascroll",
			Width:  1280,
			Height: 800,
		},
	}
}

// Load reads the configuration from path. A missing file is created with defaults.
// Environment overrides (NARRASCROLL_*) are applied on top and never written back.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandPaths resolves $VAR references in file paths. The raw values stay on disk.
func (c *Config) expandPaths() {
	for _, p := range []*string{
		&c.Log.Server.Path,
		&c.Log.Requests.Path,
		&c.Log.Events.Path,
		&c.DB.Path,
		&c.Stories.Dir,
		&c.Stories.MediaRoot,
	} {
		*p = os.ExpandEnv(*p)
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Visibility.Margin < 0 || c.Visibility.Margin >= 0.5 {
		return fmt.Errorf("invalid visibility margin %.2f: must be in [0, 0.5)", c.Visibility.Margin)
	}
	if c.Narration.Volume < 0 || c.Narration.Volume > 1 {
		return fmt.Errorf("invalid narration volume %.2f: must be in [0, 1]", c.Narration.Volume)
	}
	if c.Sequencer.SettleWindow < 0 || c.Sequencer.EndedDelay < 0 || c.Sequencer.ErrorDelay < 0 || c.Sequencer.DwellDelay < 0 {
		return fmt.Errorf("sequencer delays must not be negative")
	}
	if c.Stories.Dir == "" {
		return fmt.Errorf("stories.dir must be set")
	}
	return nil
}

// Save writes the configuration to path with a commented header.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Narrascroll Configuration
# -------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# Environment overrides: NARRASCROLL_ADDRESS, NARRASCROLL_LOG_LEVEL, NARRASCROLL_DB_PATH,
#   NARRASCROLL_STORIES_DIR, NARRASCROLL_MEDIA_ROOT, NARRASCROLL_VOLUME, NARRASCROLL_MUTED

`)
	data = append(header, data...)

	reLevel := regexp.MustCompile(`(?m)^(\s+)level:`)
	data = reLevel.ReplaceAll(data, []byte("${1}# Options: DEBUG, INFO, WARN, ERROR\n${1}level:"))

	reMargin := regexp.MustCompile(`(?m)^(\s+)margin:`)
	data = reMargin.ReplaceAll(data, []byte("${1}# Fraction of the viewport excluded at top and bottom\n${1}margin:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault writes a default configuration file to path unless one exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
