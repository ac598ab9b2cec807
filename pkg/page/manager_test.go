package page

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narrascroll/pkg/model"
	"narrascroll/pkg/visibility"
)

func TestManager_Mount(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	p, err := f.mgr.Mount(ctx, "flood")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "flood", p.StoryID)
	assert.Same(t, p, f.mgr.Active())

	st := p.State()
	assert.Equal(t, "hero", st.CurrentSegmentID)
	assert.Equal(t, model.PhaseManual, st.Phase)

	got, err := f.mgr.Get(p.ID)
	require.NoError(t, err)
	assert.Same(t, p, got)
}

func TestManager_MountUnknownStory(t *testing.T) {
	f := newManagerFixture(t)

	_, err := f.mgr.Mount(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, f.mgr.Active())
}

func TestManager_MountReplacesActivePage(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	first, err := f.mgr.Mount(ctx, "flood")
	require.NoError(t, err)
	require.NoError(t, first.Control(ActionToggle))
	f.clk.Advance(testSettle)
	require.Equal(t, []string{"hero.mp3"}, f.out.playList())

	second, err := f.mgr.Mount(ctx, "quake")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = f.mgr.Get(first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, f.out.IsBusy(), "unmounting the old page must stop its narration")

	// The old sequencer is closed: controls are ignored.
	require.NoError(t, first.Control(ActionNext))
	assert.Equal(t, "hero", first.State().CurrentSegmentID)
}

func TestManager_Unmount(t *testing.T) {
	f := newManagerFixture(t)
	p, err := f.mgr.Mount(context.Background(), "flood")
	require.NoError(t, err)

	require.NoError(t, f.mgr.Unmount(p.ID))
	assert.Nil(t, f.mgr.Active())
	assert.ErrorIs(t, f.mgr.Unmount(p.ID), ErrNotFound)
	assert.Equal(t, 0, f.clk.Pending())
}

func TestManager_Shutdown(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.mgr.Mount(context.Background(), "flood")
	require.NoError(t, err)

	f.mgr.Shutdown()
	assert.Nil(t, f.mgr.Active())
	assert.Equal(t, 1, f.out.shutdowns)
}

func TestManager_MutePreference(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	f.prefs.muted = true

	p, err := f.mgr.Mount(ctx, "flood")
	require.NoError(t, err)
	assert.True(t, p.State().Muted, "persisted mute applies on mount")
	assert.True(t, f.out.isMuted())

	require.NoError(t, p.Control(ActionMute))
	assert.False(t, p.State().Muted)
	assert.False(t, f.prefs.Muted(ctx))

	// Unrelated state changes do not rewrite the preference.
	require.NoError(t, p.Control(ActionToggle))
	assert.Equal(t, []bool{false}, f.prefs.sets)
}

func TestManager_RecordsEvents(t *testing.T) {
	f := newManagerFixture(t)
	p, err := f.mgr.Mount(context.Background(), "flood")
	require.NoError(t, err)

	require.NoError(t, p.Control(ActionStart))
	require.NoError(t, p.Control(ActionToggle))
	require.NoError(t, p.Control(ActionStop))

	assert.Equal(t, []model.PlaybackEventType{
		model.EventPresentationStarted,
		model.EventSegmentEntered,
		model.EventPresentationPaused,
		model.EventPresentationStopped,
	}, f.events.types())
	for _, ev := range f.events.events {
		assert.Equal(t, p.ID, ev.PageID)
		assert.Equal(t, "flood", ev.StoryID)
	}
}

func TestPage_Control(t *testing.T) {
	tests := []struct {
		name    string
		actions []string
		want    model.Phase
		current string
		wantErr error
	}{
		{name: "toggle starts", actions: []string{ActionToggle}, want: model.PhaseAutoplayPlaying, current: "hero"},
		{name: "toggle twice pauses", actions: []string{ActionToggle, ActionToggle}, want: model.PhaseAutoplayPaused, current: "hero"},
		{name: "start then stop", actions: []string{ActionStart, ActionStop}, want: model.PhaseManual, current: "hero"},
		{name: "next in manual", actions: []string{ActionNext}, want: model.PhaseManual, current: "t1"},
		{name: "prev at first", actions: []string{ActionPrev}, want: model.PhaseManual, current: "hero"},
		{name: "unknown", actions: []string{"rewind"}, want: model.PhaseManual, current: "hero", wantErr: ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newManagerFixture(t)
			p, err := f.mgr.Mount(context.Background(), "flood")
			require.NoError(t, err)

			var last error
			for _, a := range tt.actions {
				last = p.Control(a)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, last, tt.wantErr)
			} else {
				assert.NoError(t, last)
			}

			st := p.State()
			assert.Equal(t, tt.want, st.Phase)
			assert.Equal(t, tt.current, st.CurrentSegmentID)
		})
	}
}

func TestPage_VisibilityDrivesManualSelection(t *testing.T) {
	f := newManagerFixture(t)
	p, err := f.mgr.Mount(context.Background(), "flood")
	require.NoError(t, err)

	p.Observer().Measure(1000, map[string]visibility.Rect{
		"hero":   {Top: -900, Bottom: 50},
		"t1":     {Top: 50, Bottom: 950},
		"impact": {Top: 950, Bottom: 1900},
	})
	assert.Equal(t, "t1", p.State().CurrentSegmentID)

	p.Observer().Report("impact", true)
	assert.Equal(t, "impact", p.State().CurrentSegmentID)
}

func TestPage_AttachBroadcasts(t *testing.T) {
	f := newManagerFixture(t)
	p, err := f.mgr.Mount(context.Background(), "flood")
	require.NoError(t, err)

	var msgs []Message
	detach := p.Attach(func(m Message) { msgs = append(msgs, m) })
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgState, msgs[0].Type)
	assert.Equal(t, "hero", msgs[0].State.CurrentSegmentID)

	msgs = nil
	require.NoError(t, p.Control(ActionStart))

	var kinds []string
	for _, m := range msgs {
		kinds = append(kinds, m.Type)
	}
	assert.Equal(t, []string{MsgScroll, MsgLock, MsgState}, kinds)
	assert.Equal(t, "hero", msgs[0].Segment)
	assert.True(t, *msgs[1].Locked)
	assert.True(t, msgs[2].State.ScrollLocked)

	msgs = nil
	f.clk.Advance(testSettle)
	require.NotEmpty(t, msgs)
	assert.Equal(t, MsgLock, msgs[0].Type)
	assert.False(t, *msgs[0].Locked)

	detach()
	msgs = nil
	require.NoError(t, p.Control(ActionToggle))
	assert.Empty(t, msgs)
}
