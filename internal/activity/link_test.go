package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveberzack/5-minute-react/internal/testutil"
)

type recordingEvent struct {
	prevented bool
}

func (e *recordingEvent) PreventDefault() { e.prevented = true }

func TestHandleGameLinkClick(t *testing.T) {
	f := newFixture(t)
	var opened []string
	nav := NavigatorFunc(func(_ context.Context, url string) error {
		opened = append(opened, url)
		return nil
	})
	h := NewLinkHandler(f.tracker, f.detector, nav, testutil.DiscardLogger())
	ev := &recordingEvent{}

	res, err := h.HandleGameLinkClick(context.Background(), 42, "https://game", ev)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.True(t, ev.prevented)
	assert.Equal(t, []string{"https://game"}, opened)

	assert.Equal(t, StatePendingScore, f.tracker.State(42))
	visit, ok := f.detector.CheckForRecentGameVisit()
	require.True(t, ok)
	assert.Equal(t, "42", visit.GameID)
}

func TestHandleGameLinkClick_NavigationFailureKeepsBookkeeping(t *testing.T) {
	f := newFixture(t)
	nav := NavigatorFunc(func(context.Context, string) error { return errors.New("popup blocked") })
	h := NewLinkHandler(f.tracker, f.detector, nav, testutil.DiscardLogger())

	res, err := h.HandleGameLinkClick(context.Background(), "9", "https://nine", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "popup blocked")
	assert.True(t, res.OK())
	assert.True(t, f.tracker.HasPlayedToday(9))
}

func TestHandleGameLinkClick_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.FailSaves(true)
	h := NewLinkHandler(f.tracker, f.detector, nil, testutil.DiscardLogger())

	res, err := h.HandleGameLinkClick(context.Background(), 1, "u", nil)
	require.NoError(t, err)
	assert.True(t, res.Degraded())
}
