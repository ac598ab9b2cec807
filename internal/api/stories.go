package api

import (
	"net/http"

	"narrascroll/pkg/model"
	"narrascroll/pkg/registry"
)

// StoryHandler serves the story catalog.
type StoryHandler struct {
	catalog *registry.Catalog
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(catalog *registry.Catalog) *StoryHandler {
	return &StoryHandler{catalog: catalog}
}

// StorySummary is one entry of the story list.
type StorySummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Segments    int    `json:"segments"`
}

// HandleList handles GET /api/stories
func (h *StoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	regs := h.catalog.List()
	out := make([]StorySummary, 0, len(regs))
	for _, reg := range regs {
		out = append(out, StorySummary{
			ID:          reg.StoryID(),
			Title:       reg.Title(),
			Description: h.catalog.Description(reg.StoryID()),
			Segments:    reg.Len(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/stories/{id}
func (h *StoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.catalog.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "story not found", http.StatusNotFound)
		return
	}
	story := &model.Story{
		ID:          reg.StoryID(),
		Title:       reg.Title(),
		Description: h.catalog.Description(reg.StoryID()),
		Segments:    reg.Segments(),
	}
	writeJSON(w, http.StatusOK, story)
}
