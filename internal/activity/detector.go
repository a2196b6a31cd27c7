package activity

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/daveberzack/5-minute-react/internal/clock"
	"github.com/daveberzack/5-minute-react/internal/result"
	"github.com/daveberzack/5-minute-react/internal/storage"
)

// Storage keys used by Detector. Together they form one RecentVisit record.
const (
	KeyLastClicked     = "lastLinkClicked"
	KeyLastClickedTime = "lastLinkClickedTime"
	KeyLastClickedURL  = "lastLinkClickedUrl"
)

// RecentVisitWindow is how long after a click a visit still counts as recent.
// The bound is inclusive.
const RecentVisitWindow = 10 * time.Minute

// RecentVisit is the last game link the player followed.
type RecentVisit struct {
	GameID    string    `json:"gameId"`
	GameURL   string    `json:"gameUrl"`
	ClickTime time.Time `json:"clickTime"`
}

// Detector stores and checks the recent-visit record.
type Detector struct {
	port   *storage.Port
	clock  clock.Clock
	logger *slog.Logger
}

// NewDetector creates a Detector over p. A nil clock means the system clock.
func NewDetector(p *storage.Port, c clock.Clock) *Detector {
	return &Detector{
		port:   p,
		clock:  clock.OrSystem(c),
		logger: p.Logger(),
	}
}

// StoreRecentGameClick overwrites the record with gameID, gameURL and now.
// All three keys are written even if one fails; the result is the worst of
// the three.
func (d *Detector) StoreRecentGameClick(gameID any, gameURL string) result.Result {
	const op = "activity.store_click"

	id, ok := GameID(gameID)
	if !ok {
		d.logger.Error("invalid game id provided to store click", "id", gameID)
		return result.Fail(result.KindInvalid, op, KeyLastClicked, errInvalidGameID(gameID))
	}

	now := d.clock.Now()
	res := result.Worst(
		d.port.Set(KeyLastClicked, id),
		d.port.Set(KeyLastClickedTime, strconv.FormatInt(now.UnixMilli(), 10)),
		d.port.Set(KeyLastClickedURL, gameURL),
	)
	if res.Degraded() {
		res.Op = op
		return res
	}
	d.logger.Info("stored recent game click", "game_id", id, "at", now.Format(time.Kitchen))
	return result.OK(op)
}

// Recent returns the stored record regardless of age.
func (d *Detector) Recent() (RecentVisit, bool) {
	id, ok, _ := d.port.Get(KeyLastClicked)
	if !ok || id == "" {
		return RecentVisit{}, false
	}
	rawTime, ok, _ := d.port.Get(KeyLastClickedTime)
	if !ok || rawTime == "" {
		return RecentVisit{}, false
	}
	millis, err := strconv.ParseInt(rawTime, 10, 64)
	if err != nil {
		d.logger.Warn("stored click time is invalid, ignoring recent visit", "key", KeyLastClickedTime, "value", rawTime)
		return RecentVisit{}, false
	}
	url, _, _ := d.port.Get(KeyLastClickedURL)

	return RecentVisit{
		GameID:    id,
		GameURL:   url,
		ClickTime: time.UnixMilli(millis).In(d.clock.Now().Location()),
	}, true
}

// CheckForRecentGameVisit returns the stored record if it is at most
// RecentVisitWindow old. An expired record is left in place.
func (d *Detector) CheckForRecentGameVisit() (RecentVisit, bool) {
	visit, ok := d.Recent()
	if !ok {
		return RecentVisit{}, false
	}
	if d.clock.Now().UnixMilli()-visit.ClickTime.UnixMilli() > RecentVisitWindow.Milliseconds() {
		return RecentVisit{}, false
	}
	return visit, true
}

// ClearRecentGameVisit removes the record so the player is not prompted
// again.
func (d *Detector) ClearRecentGameVisit() result.Result {
	res := result.Worst(
		d.port.Remove(KeyLastClicked),
		d.port.Remove(KeyLastClickedTime),
		d.port.Remove(KeyLastClickedURL),
	)
	res.Op = "activity.clear_click"
	return res
}
