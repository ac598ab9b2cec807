package model

// Segment is one step of a narrated story page (hero, timeline entry, impact panel, Q&A).
// Segments are defined once per story and never mutated.
type Segment struct {
	ID            string `json:"id" yaml:"id"`
	Order         int    `json:"order" yaml:"order"`
	NarrationURL  string `json:"narration_url,omitempty" yaml:"narration,omitempty"`
	BackgroundRef string `json:"background_ref,omitempty" yaml:"background,omitempty"`

	// Display metadata, opaque to the sequencer.
	Year  string `json:"year,omitempty" yaml:"year,omitempty"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Stat1 string `json:"stat1,omitempty" yaml:"stat1,omitempty"`
	Stat2 string `json:"stat2,omitempty" yaml:"stat2,omitempty"`
}

// HasNarration reports whether the segment carries a spoken clip.
func (s *Segment) HasNarration() bool {
	return s.NarrationURL != ""
}

// Story is the static description of one presentation page.
type Story struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Segments    []Segment `json:"segments" yaml:"segments"`
}
