package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"narrascroll/pkg/model"
	"narrascroll/pkg/page"
	"narrascroll/pkg/visibility"
)

// PageHandler exposes mounted story pages: lifecycle, control surface and the
// page socket.
type PageHandler struct {
	pages *page.Manager
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(pages *page.Manager) *PageHandler {
	return &PageHandler{pages: pages}
}

// MountRequest selects the story to mount.
type MountRequest struct {
	Story string `json:"story"`
}

// MountResponse identifies the mounted page.
type MountResponse struct {
	Page     string                  `json:"page"`
	Story    string                  `json:"story"`
	Segments []model.Segment         `json:"segments"`
	State    model.PresentationState `json:"state"`
}

// ControlRequest is a control-surface action.
type ControlRequest struct {
	Action string `json:"action"`
}

// VisibilityRequest carries either a single pre-computed signal
// (segment/in_view) or the geometry of the mounted segments.
type VisibilityRequest struct {
	Segment        string                     `json:"segment,omitempty"`
	InView         bool                       `json:"in_view,omitempty"`
	ViewportHeight float64                    `json:"viewport_height,omitempty"`
	Rects          map[string]visibility.Rect `json:"rects,omitempty"`
}

// apply feeds the request into the observer.
func (v *VisibilityRequest) apply(obs *visibility.Observer) error {
	switch {
	case v.Rects != nil:
		if v.ViewportHeight <= 0 {
			return errors.New("viewport_height must be positive")
		}
		obs.Measure(v.ViewportHeight, v.Rects)
	case v.Segment != "":
		obs.Report(v.Segment, v.InView)
	default:
		return errors.New("segment or rects required")
	}
	return nil
}

// HandleMount handles POST /api/pages
func (h *PageHandler) HandleMount(w http.ResponseWriter, r *http.Request) {
	var req MountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.pages.Mount(r.Context(), req.Story)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, MountResponse{
		Page:     p.ID,
		Story:    p.StoryID,
		Segments: p.Registry().Segments(),
		State:    p.State(),
	})
}

// HandleState handles GET /api/pages/{id}/state
func (h *PageHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	p, err := h.pages.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.State())
}

// HandleControl handles POST /api/pages/{id}/control
func (h *PageHandler) HandleControl(w http.ResponseWriter, r *http.Request) {
	p, err := h.pages.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := p.Control(req.Action); err != nil {
		h.writeError(w, err)
		return
	}

	slog.Debug("Page control", "page", p.ID, "action", req.Action)
	writeJSON(w, http.StatusOK, p.State())
}

// HandleVisibility handles POST /api/pages/{id}/visibility
func (h *PageHandler) HandleVisibility(w http.ResponseWriter, r *http.Request) {
	p, err := h.pages.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req VisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.apply(p.Observer()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, p.State())
}

// HandleUnmount handles DELETE /api/pages/{id}
func (h *PageHandler) HandleUnmount(w http.ResponseWriter, r *http.Request) {
	if err := h.pages.Unmount(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PageHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, page.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, page.ErrUnknownAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("Page request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
