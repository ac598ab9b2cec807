package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narrascroll/pkg/model"
)

func story(ids ...string) *model.Story {
	s := &model.Story{ID: "test", Title: "Test"}
	for i, id := range ids {
		s.Segments = append(s.Segments, model.Segment{ID: id, Order: i, NarrationURL: "audio/" + id + ".mp3"})
	}
	return s
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		story   *model.Story
		wantErr bool
	}{
		{name: "Valid", story: story("hero", "t1", "t2"), wantErr: false},
		{name: "Nil", story: nil, wantErr: true},
		{name: "Empty", story: &model.Story{ID: "x"}, wantErr: true},
		{
			name: "Duplicate ID",
			story: &model.Story{ID: "x", Segments: []model.Segment{
				{ID: "a", Order: 0}, {ID: "a", Order: 1},
			}},
			wantErr: true,
		},
		{
			name: "Missing ID",
			story: &model.Story{ID: "x", Segments: []model.Segment{
				{ID: "a", Order: 0}, {ID: "", Order: 1},
			}},
			wantErr: true,
		},
		{
			name: "Gap In Order",
			story: &model.Story{ID: "x", Segments: []model.Segment{
				{ID: "a", Order: 0}, {ID: "b", Order: 2},
			}},
			wantErr: true,
		},
		{
			name: "Duplicate Order",
			story: &model.Story{ID: "x", Segments: []model.Segment{
				{ID: "a", Order: 0}, {ID: "b", Order: 0},
			}},
			wantErr: true,
		},
		{
			name: "Unsorted Input Is Accepted",
			story: &model.Story{ID: "x", Segments: []model.Segment{
				{ID: "b", Order: 1}, {ID: "a", Order: 0},
			}},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.story)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidStory))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegistry_Navigation(t *testing.T) {
	r, err := New(story("hero", "t1", "t2", "impact"))
	require.NoError(t, err)

	assert.Equal(t, 4, r.Len())
	assert.Equal(t, "hero", r.First().ID)
	assert.Equal(t, "impact", r.Last().ID)
	assert.Equal(t, []string{"hero", "t1", "t2", "impact"}, r.IDs())
	assert.Equal(t, 2, r.OrderOf("t2"))
	assert.Equal(t, -1, r.OrderOf("nope"))
	assert.True(t, r.Contains("t1"))
	assert.False(t, r.Contains("nope"))

	next, ok := r.Next("hero")
	require.True(t, ok)
	assert.Equal(t, "t1", next.ID)

	_, ok = r.Next("impact")
	assert.False(t, ok, "no segment after the last one")

	prev, ok := r.Prev("t1")
	require.True(t, ok)
	assert.Equal(t, "hero", prev.ID)

	_, ok = r.Prev("hero")
	assert.False(t, ok, "no segment before the first one")

	_, ok = r.Next("nope")
	assert.False(t, ok)
}

func TestRegistry_SegmentsAreCopies(t *testing.T) {
	r, err := New(story("a", "b"))
	require.NoError(t, err)

	segs := r.Segments()
	segs[0].ID = "mutated"

	assert.Equal(t, "a", r.First().ID)
}
