package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narrascroll/pkg/model"
	"narrascroll/pkg/registry"
)

func newSurface(t *testing.T) *Surface {
	t.Helper()
	reg, err := registry.New(&model.Story{ID: "s", Segments: []model.Segment{
		{ID: "a", Order: 0},
		{ID: "b", Order: 1},
		{ID: "c", Order: 2},
	}})
	require.NoError(t, err)
	return NewSurface(reg)
}

func TestSurface_HasAnchor(t *testing.T) {
	s := newSurface(t)

	// Before any client reports, every registered segment counts as mounted.
	assert.True(t, s.HasAnchor("a"))
	assert.True(t, s.HasAnchor("c"))
	assert.False(t, s.HasAnchor("zzz"))

	s.SetAnchors([]string{"a", "b", "zzz"})
	assert.True(t, s.HasAnchor("a"))
	assert.True(t, s.HasAnchor("b"))
	assert.False(t, s.HasAnchor("c"))
	assert.False(t, s.HasAnchor("zzz"))

	s.SetAnchors(nil)
	assert.False(t, s.HasAnchor("a"), "an empty report means nothing is mounted")
}

func TestSurface_ScrollIntoViewBroadcasts(t *testing.T) {
	s := newSurface(t)

	var first, second []Message
	detachFirst := s.Attach(func(m Message) { first = append(first, m) })
	s.Attach(func(m Message) { second = append(second, m) })
	assert.Equal(t, 2, s.Clients())

	require.NoError(t, s.ScrollIntoView("b"))
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, Message{Type: MsgScroll, Segment: "b"}, first[0])

	detachFirst()
	assert.Equal(t, 1, s.Clients())
	require.NoError(t, s.ScrollIntoView("c"))
	assert.Len(t, first, 1)
	assert.Len(t, second, 2)
}
