package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveberzack/5-minute-react/internal/result"
	"github.com/daveberzack/5-minute-react/internal/storage"
	"github.com/daveberzack/5-minute-react/internal/testutil"
)

type fixture struct {
	mem      *storage.Memory
	backend  *testutil.FailingBackend
	port     *storage.Port
	clock    *testutil.ManualClock
	tracker  *Tracker
	detector *Detector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storage.NewMemory()
	fb := testutil.NewFailingBackend(mem)
	port := storage.New(fb, storage.WithLogger(testutil.DiscardLogger()))
	clk := testutil.NewManualClockAt("2024-01-01T09:00:00Z")
	return &fixture{
		mem:      mem,
		backend:  fb,
		port:     port,
		clock:    clk,
		tracker:  NewTracker(port, clk),
		detector: NewDetector(port, clk),
	}
}

func (f *fixture) raw(t *testing.T, key string) string {
	t.Helper()
	v, ok, err := f.mem.Load(key)
	require.NoError(t, err)
	require.True(t, ok, "key %s not persisted", key)
	return v
}

func TestInitializeDailyTracking_FirstRun(t *testing.T) {
	f := newFixture(t)

	played, res := f.tracker.InitializeDailyTracking()
	assert.Empty(t, played)
	assert.Equal(t, result.KindOK, res.Kind)
	assert.Equal(t, "2024-01-01", f.raw(t, KeyLastVisited))
	assert.Equal(t, "[]", f.raw(t, KeyPlayedToday))
}

func TestInitializeDailyTracking_SameDayKeepsSet(t *testing.T) {
	f := newFixture(t)
	_, _ = f.tracker.MarkPlayed(7)

	played, res := f.tracker.InitializeDailyTracking()
	assert.Equal(t, []string{"7"}, played)
	assert.Equal(t, result.KindNoop, res.Kind)
}

func TestInitializeDailyTracking_NextDayResets(t *testing.T) {
	f := newFixture(t)
	_, _ = f.tracker.InitializeDailyTracking()
	_, _ = f.tracker.MarkPlayed(7)
	_, _ = f.tracker.MarkPlayed(8)
	require.Equal(t, []string{"7", "8"}, f.tracker.PlayedToday())

	f.clock.Set(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	played, res := f.tracker.InitializeDailyTracking()

	assert.Empty(t, played)
	assert.True(t, res.Changed())
	assert.Equal(t, "2024-01-02", f.raw(t, KeyLastVisited))
	assert.Empty(t, f.tracker.PlayedToday())
}

func TestInitializeDailyTracking_LocalMidnight(t *testing.T) {
	f := newFixture(t)
	newYork := time.FixedZone("EST", -5*3600)

	f.clock.Set(time.Date(2024, 1, 1, 23, 59, 0, 0, newYork))
	_, _ = f.tracker.MarkPlayed(1)

	// Already Jan 2 in UTC, still Jan 1 on the device.
	f.clock.Set(time.Date(2024, 1, 2, 0, 0, 30, 0, newYork).Add(-time.Minute))
	played, _ := f.tracker.InitializeDailyTracking()
	assert.Equal(t, []string{"1"}, played)

	f.clock.Set(time.Date(2024, 1, 2, 0, 0, 0, 0, newYork))
	played, _ = f.tracker.InitializeDailyTracking()
	assert.Empty(t, played)
	assert.Equal(t, "2024-01-02", f.raw(t, KeyLastVisited))
}

func TestMarkPlayed_Dedup(t *testing.T) {
	f := newFixture(t)

	first, res := f.tracker.MarkPlayed("42")
	require.True(t, res.Changed())
	second, res := f.tracker.MarkPlayed(42)

	assert.Equal(t, result.KindNoop, res.Kind)
	assert.Equal(t, first, second)
	assert.Len(t, second, 1)
}

func TestMarkPlayed_RollsOverStaleSet(t *testing.T) {
	f := newFixture(t)
	_, _ = f.tracker.MarkPlayed(7)

	f.clock.Advance(24 * time.Hour)
	played, _ := f.tracker.MarkPlayed(9)
	assert.Equal(t, []string{"9"}, played)
}

func TestMarkPlayed_InvalidID(t *testing.T) {
	f := newFixture(t)

	_, res := f.tracker.MarkPlayed(3.25)
	assert.Equal(t, result.KindInvalid, res.Kind)
	assert.Empty(t, f.tracker.PlayedToday())
}

func TestMarkPlayed_WriteFailureKeepsSessionValue(t *testing.T) {
	f := newFixture(t)
	f.backend.FailSaves(true)

	played, res := f.tracker.MarkPlayed(5)
	assert.True(t, res.Degraded())
	assert.Equal(t, []string{"5"}, played)
	assert.True(t, f.tracker.HasPlayedToday(5))
}

func TestHasPlayedToday_NoRollover(t *testing.T) {
	f := newFixture(t)
	_, _ = f.tracker.MarkPlayed(7)
	f.clock.Advance(48 * time.Hour)

	assert.True(t, f.tracker.HasPlayedToday(7), "reads the persisted set as is")
	assert.Equal(t, "2024-01-01", f.raw(t, KeyLastVisited))
}

func TestPlayedToday_MixedLegacyEncoding(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mem.Save(KeyPlayedToday, `[7, "8", 7, null, {"x":1}, "  9 "]`))

	assert.Equal(t, []string{"7", "8", "9"}, f.tracker.PlayedToday())
}

func TestPlayedToday_CorruptIsEmpty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mem.Save(KeyPlayedToday, `not json`))

	assert.Empty(t, f.tracker.PlayedToday())
	assert.False(t, f.tracker.HasPlayedToday(7))
}

func TestClearPlayedToday(t *testing.T) {
	f := newFixture(t)
	_, _ = f.tracker.MarkPlayed(1)

	res := f.tracker.ClearPlayedToday()
	assert.True(t, res.OK())
	assert.Empty(t, f.tracker.PlayedToday())
	assert.Equal(t, "2024-01-01", f.raw(t, KeyLastVisited))
}

func TestState_Transitions(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, StateNotPlayed, f.tracker.State(3))

	_, _ = f.tracker.MarkPlayed(3)
	assert.Equal(t, StatePendingScore, f.tracker.State(3))

	res := f.tracker.MarkScored(3)
	assert.True(t, res.Changed())
	assert.Equal(t, StateScored, f.tracker.State(3))
	assert.Equal(t, result.KindNoop, f.tracker.MarkScored(3).Kind)

	f.clock.Advance(24 * time.Hour)
	_, _ = f.tracker.InitializeDailyTracking()
	assert.Equal(t, StateNotPlayed, f.tracker.State(3))
}

func TestLastVisited_InvalidStoredDate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mem.Save(KeyLastVisited, "1/1/2024"))

	assert.True(t, f.tracker.LastVisited().IsZero())
	_, res := f.tracker.InitializeDailyTracking()
	assert.True(t, res.Changed())
}
