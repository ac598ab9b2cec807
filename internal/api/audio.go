package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// AudioOutput is the part of the audio resource the volume endpoints need.
type AudioOutput interface {
	SetVolume(vol float64)
	Volume() float64
	IsPlaying() bool
	IsPaused() bool
	IsMuted() bool
}

// VolumeStore persists the volume preference (config.Provider).
type VolumeStore interface {
	SetVolume(ctx context.Context, vol float64) error
}

// AudioHandler handles the speaker volume endpoints. Playback itself is driven
// by the page sequencer.
type AudioHandler struct {
	audio AudioOutput
	prefs VolumeStore
}

// NewAudioHandler creates a new AudioHandler. prefs may be nil.
func NewAudioHandler(out AudioOutput, prefs VolumeStore) *AudioHandler {
	return &AudioHandler{
		audio: out,
		prefs: prefs,
	}
}

// AudioVolumeRequest represents a volume change request.
type AudioVolumeRequest struct {
	Volume float64 `json:"volume"`
}

// AudioStatusResponse represents the audio status.
type AudioStatusResponse struct {
	IsPlaying bool    `json:"is_playing"`
	IsPaused  bool    `json:"is_paused"`
	IsMuted   bool    `json:"is_muted"`
	Volume    float64 `json:"volume"`
}

// HandleVolume handles POST /api/audio/volume
func (h *AudioHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req AudioVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Volume < 0 || req.Volume > 1 {
		http.Error(w, "volume must be within [0, 1]", http.StatusBadRequest)
		return
	}

	h.audio.SetVolume(req.Volume)

	if h.prefs != nil {
		if err := h.prefs.SetVolume(r.Context(), req.Volume); err != nil {
			slog.Error("Failed to persist volume", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"volume": h.audio.Volume(),
	})
}

// HandleStatus handles GET /api/audio/status
func (h *AudioHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AudioStatusResponse{
		IsPlaying: h.audio.IsPlaying(),
		IsPaused:  h.audio.IsPaused(),
		IsMuted:   h.audio.IsMuted(),
		Volume:    h.audio.Volume(),
	})
}
