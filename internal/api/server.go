package api

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"narrascroll/internal/ui"
	"narrascroll/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints, the directory served under /media/
// and a shutdownFunc for graceful shutdown.
func NewServer(addr string, stories *StoryHandler, pages *PageHandler, events *EventHandler, audioH *AudioHandler, mediaRoot string, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version and log Endpoints
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 3. Story Endpoints
	mux.HandleFunc("GET /api/stories", stories.HandleList)
	mux.HandleFunc("GET /api/stories/{id}", stories.HandleGet)

	// 4. Page Endpoints
	mux.HandleFunc("POST /api/pages", pages.HandleMount)
	mux.HandleFunc("GET /api/pages/{id}/state", pages.HandleState)
	mux.HandleFunc("POST /api/pages/{id}/control", pages.HandleControl)
	mux.HandleFunc("POST /api/pages/{id}/visibility", pages.HandleVisibility)
	mux.HandleFunc("DELETE /api/pages/{id}", pages.HandleUnmount)
	mux.HandleFunc("GET /api/pages/{id}/ws", pages.HandleSocket)

	// 5. Playback event log
	if events != nil {
		mux.HandleFunc("GET /api/events", events.HandleList)
	}

	// 6. Audio Endpoints
	if audioH != nil {
		mux.HandleFunc("POST /api/audio/volume", audioH.HandleVolume)
		mux.HandleFunc("GET /api/audio/status", audioH.HandleStatus)
	}

	// 7. Story media (narration clips, backgrounds)
	if mediaRoot != "" {
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaRoot))))
	}

	// 8. Shutdown Endpoint
	if shutdown != nil {
		mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
			slog.Info("Graceful shutdown initiated via API")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("Shutting down...")); err != nil {
				slog.Error("Failed to write shutdown response", "error", err)
			}
			// Let the response flush before the listener closes.
			go func() {
				time.Sleep(100 * time.Millisecond)
				shutdown()
			}()
		})
	}

	// 9. Static Frontend Serving (SPA)
	distFS, err := fs.Sub(ui.DistFS, "dist")
	if err != nil {
		panic(fmt.Sprintf("Failed to subtree dist from embedded assets: %v", err))
	}

	spaFS := &spaFileSystem{root: http.FS(distFS)}
	mux.Handle("/", http.FileServer(spaFS))

	// WriteTimeout is left unset: page sockets are long-lived and set their own write deadlines.
	return &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
