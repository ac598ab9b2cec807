// Package registry holds the ordered, immutable segment list of a story page.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"narrascroll/pkg/model"
)

// ErrInvalidStory is returned when a story violates the registry invariants.
var ErrInvalidStory = errors.New("invalid story")

// Registry is the validated segment sequence of one story.
type Registry struct {
	storyID  string
	title    string
	segments []model.Segment
	index    map[string]int
}

// New validates the story and builds its registry.
// Ids must be unique and non-empty, orders unique and contiguous from 0.
func New(story *model.Story) (*Registry, error) {
	if story == nil {
		return nil, fmt.Errorf("%w: nil story", ErrInvalidStory)
	}
	if len(story.Segments) == 0 {
		return nil, fmt.Errorf("%w: story %q has no segments", ErrInvalidStory, story.ID)
	}

	segs := make([]model.Segment, len(story.Segments))
	copy(segs, story.Segments)
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Order < segs[j].Order })

	index := make(map[string]int, len(segs))
	for i := range segs {
		s := &segs[i]
		if s.ID == "" {
			return nil, fmt.Errorf("%w: story %q: segment at order %d has no id", ErrInvalidStory, story.ID, s.Order)
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("%w: story %q: duplicate segment id %q", ErrInvalidStory, story.ID, s.ID)
		}
		if s.Order != i {
			return nil, fmt.Errorf("%w: story %q: segment %q has order %d, expected %d (orders must be unique and contiguous from 0)",
				ErrInvalidStory, story.ID, s.ID, s.Order, i)
		}
		index[s.ID] = i
	}

	return &Registry{
		storyID:  story.ID,
		title:    story.Title,
		segments: segs,
		index:    index,
	}, nil
}

// StoryID returns the id of the story the registry was built from.
func (r *Registry) StoryID() string { return r.storyID }

// Title returns the story title.
func (r *Registry) Title() string { return r.title }

// Len returns the number of segments.
func (r *Registry) Len() int { return len(r.segments) }

// First returns the segment with the lowest order.
func (r *Registry) First() model.Segment { return r.segments[0] }

// Last returns the segment with the highest order.
func (r *Registry) Last() model.Segment { return r.segments[len(r.segments)-1] }

// Contains reports whether id names a segment of this story.
func (r *Registry) Contains(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Get returns the segment with the given id.
func (r *Registry) Get(id string) (model.Segment, bool) {
	i, ok := r.index[id]
	if !ok {
		return model.Segment{}, false
	}
	return r.segments[i], true
}

// OrderOf returns the order of id, or -1 if unknown.
func (r *Registry) OrderOf(id string) int {
	i, ok := r.index[id]
	if !ok {
		return -1
	}
	return i
}

// Next returns the segment following id by order.
func (r *Registry) Next(id string) (model.Segment, bool) {
	i, ok := r.index[id]
	if !ok || i+1 >= len(r.segments) {
		return model.Segment{}, false
	}
	return r.segments[i+1], true
}

// Prev returns the segment preceding id by order.
func (r *Registry) Prev(id string) (model.Segment, bool) {
	i, ok := r.index[id]
	if !ok || i == 0 {
		return model.Segment{}, false
	}
	return r.segments[i-1], true
}

// IDs returns segment ids in order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.segments))
	for i := range r.segments {
		ids[i] = r.segments[i].ID
	}
	return ids
}

// Segments returns a copy of the ordered segment list.
func (r *Registry) Segments() []model.Segment {
	out := make([]model.Segment, len(r.segments))
	copy(out, r.segments)
	return out
}

// Story rebuilds the story description, segments in order.
func (r *Registry) Story() *model.Story {
	return &model.Story{
		ID:       r.storyID,
		Title:    r.title,
		Segments: r.Segments(),
	}
}
