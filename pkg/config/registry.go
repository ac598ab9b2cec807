package config

// Persistent state keys (Registry)
const (
	KeyMuted  = "narration.muted"
	KeyVolume = "narration.volume"
)
