package visibility

// DefaultMargin excludes 10% of the viewport at the top and at the bottom.
const DefaultMargin = 0.10

// Rect is a segment region in viewport-relative pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Band is the central region of the viewport in which a segment counts as in view.
type Band struct {
	Top    float64
	Bottom float64
}

// CentralBand returns the band of a viewport of the given height after cutting
// margin*height off both ends. Margins outside [0, 0.5) fall back to DefaultMargin.
func CentralBand(viewportHeight, margin float64) Band {
	if margin < 0 || margin >= 0.5 {
		margin = DefaultMargin
	}
	return Band{
		Top:    viewportHeight * margin,
		Bottom: viewportHeight * (1 - margin),
	}
}

// Intersects reports whether r overlaps the band. Touching edges do not count.
func (b Band) Intersects(r Rect) bool {
	if r.Bottom <= r.Top {
		return false
	}
	return r.Top < b.Bottom && r.Bottom > b.Top
}
