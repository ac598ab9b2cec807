package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"narrascroll/pkg/store"
)

// EventHandler serves the playback event log.
type EventHandler struct {
	store store.EventStore
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(st store.EventStore) *EventHandler {
	return &EventHandler{store: st}
}

// HandleList handles GET /api/events?story=&limit=
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := store.DefaultEventLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := h.store.ListEvents(r.Context(), q.Get("story"), limit)
	if err != nil {
		slog.Error("Failed to list playback events", "error", err)
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
