package activity

import (
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/daveberzack/5-minute-react/internal/clock"
	"github.com/daveberzack/5-minute-react/internal/result"
	"github.com/daveberzack/5-minute-react/internal/storage"
)

// Storage keys used by Tracker.
const (
	KeyPlayedToday = "gamesPlayedToday"
	KeyLastVisited = "lastVisitedDate"
	KeyScoredToday = "gamesScoredToday"
)

// State is a game's activity state for the current day.
type State string

const (
	StateNotPlayed    State = "not_played"
	StatePendingScore State = "played_pending_score"
	StateScored       State = "scored"
)

// Tracker maintains the played-today set.
//
// The set is only meaningful for the date stored alongside it. Callers run
// InitializeDailyTracking once per session; MarkPlayed repeats the rollover
// check itself, so a session left open past midnight starts the new day
// clean on its first click.
type Tracker struct {
	port   *storage.Port
	clock  clock.Clock
	logger *slog.Logger
}

// NewTracker creates a Tracker over p. A nil clock means the system clock.
func NewTracker(p *storage.Port, c clock.Clock) *Tracker {
	return &Tracker{
		port:   p,
		clock:  clock.OrSystem(c),
		logger: p.Logger(),
	}
}

// Today is the current device-local date.
func (t *Tracker) Today() Date {
	return DateOf(t.clock.Now())
}

// LastVisited returns the stored date, or the zero Date if none is stored or
// it does not parse.
func (t *Tracker) LastVisited() Date {
	raw, ok, _ := t.port.Get(KeyLastVisited)
	if !ok {
		return Date{}
	}
	d, err := ParseDate(raw)
	if err != nil {
		t.logger.Warn("stored visit date is invalid, treating as absent", "key", KeyLastVisited, "value", raw)
		return Date{}
	}
	return d
}

// InitializeDailyTracking resets the played and scored sets when the stored
// date is not today (including first run) and returns the played set.
func (t *Tracker) InitializeDailyTracking() ([]string, result.Result) {
	const op = "activity.initialize"

	today := t.Today()
	if t.LastVisited() == today {
		return t.PlayedToday(), result.Noop(op)
	}

	t.logger.Debug("new day, resetting played games", "date", today.String())
	res := result.Worst(
		t.port.Set(KeyLastVisited, today.String()),
		t.port.SetJSON(KeyPlayedToday, []string{}),
		t.port.SetJSON(KeyScoredToday, []string{}),
	)
	if res.Degraded() {
		t.logger.Error("error resetting daily tracking", "date", today.String(), "error", res.Err)
		res.Op = op
		return []string{}, res
	}
	return []string{}, result.OK(op)
}

// MarkPlayed adds id to today's set and returns the updated set. Marking a
// game twice is a no-op.
func (t *Tracker) MarkPlayed(id any) ([]string, result.Result) {
	const op = "activity.mark_played"

	gameID, ok := GameID(id)
	if !ok {
		t.logger.Error("invalid game id provided to mark played", "id", id)
		return t.PlayedToday(), result.Fail(result.KindInvalid, op, KeyPlayedToday, errInvalidGameID(id))
	}

	played, initRes := t.InitializeDailyTracking()
	if slices.Contains(played, gameID) {
		return played, result.Worst(result.Noop(op), initRes)
	}

	played = append(played, gameID)
	if res := t.port.SetJSON(KeyPlayedToday, played); res.Degraded() {
		t.logger.Error("error saving played games", "key", KeyPlayedToday, "error", res.Err)
		res.Op = op
		return played, res
	}
	return played, result.Worst(result.OK(op), initRes)
}

// HasPlayedToday reports whether id is in the persisted played set. It does
// not perform rollover.
func (t *Tracker) HasPlayedToday(id any) bool {
	gameID, ok := GameID(id)
	if !ok {
		return false
	}
	return slices.Contains(t.PlayedToday(), gameID)
}

// PlayedToday returns the persisted played set. It does not perform rollover.
func (t *Tracker) PlayedToday() []string {
	return t.readSet(KeyPlayedToday)
}

// ClearPlayedToday empties the played set without touching the stored date.
func (t *Tracker) ClearPlayedToday() result.Result {
	res := t.port.SetJSON(KeyPlayedToday, []string{})
	res.Op = "activity.clear_played"
	return res
}

// MarkScored records that a score was submitted for id today.
func (t *Tracker) MarkScored(id any) result.Result {
	const op = "activity.mark_scored"

	gameID, ok := GameID(id)
	if !ok {
		return result.Fail(result.KindInvalid, op, KeyScoredToday, errInvalidGameID(id))
	}
	if _, res := t.InitializeDailyTracking(); res.Degraded() {
		res.Op = op
		return res
	}

	scored := t.readSet(KeyScoredToday)
	if slices.Contains(scored, gameID) {
		return result.Noop(op)
	}
	res := t.port.SetJSON(KeyScoredToday, append(scored, gameID))
	res.Op = op
	return res
}

// State returns id's activity state for today.
func (t *Tracker) State(id any) State {
	gameID, ok := GameID(id)
	if !ok {
		return StateNotPlayed
	}
	switch {
	case slices.Contains(t.readSet(KeyScoredToday), gameID):
		return StateScored
	case slices.Contains(t.PlayedToday(), gameID):
		return StatePendingScore
	}
	return StateNotPlayed
}

func (t *Tracker) readSet(key string) []string {
	var raw []json.RawMessage
	if found, _ := t.port.GetJSON(key, &raw); !found {
		return []string{}
	}
	return decodeIDs(raw)
}
