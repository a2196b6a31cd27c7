// Package portal wires the reconciliation layer together: favorites with
// optimistic server mirroring, login-time reconciliation, daily activity and
// the score prompt.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/daveberzack/5-minute-react/internal/activity"
	"github.com/daveberzack/5-minute-react/internal/clock"
	"github.com/daveberzack/5-minute-react/internal/favorites"
	"github.com/daveberzack/5-minute-react/internal/reconcile"
	"github.com/daveberzack/5-minute-react/internal/remote"
	"github.com/daveberzack/5-minute-react/internal/result"
	"github.com/daveberzack/5-minute-react/internal/session"
	"github.com/daveberzack/5-minute-react/internal/storage"
)

// API is the account API the portal talks to. *remote.Client implements it.
type API interface {
	FavoritesAPI
	Login(ctx context.Context, username, password string) (remote.AuthResponse, error)
	Register(ctx context.Context, username, password string) (remote.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context) (remote.Profile, error)
	UpdatePlay(ctx context.Context, update remote.PlayUpdate) (remote.Profile, error)
}

// ErrSignedOut is returned by operations that need a signed-in user.
var ErrSignedOut = errors.New("not signed in")

// Deps are a Portal's collaborators. Port is required; API may be nil for a
// device-only portal.
type Deps struct {
	Port      *storage.Port
	Session   *session.Session
	API       API
	Navigator activity.Navigator
	Clock     clock.Clock
	Logger    *slog.Logger
}

// Portal is one device's view of the player's state.
type Portal struct {
	store    *favorites.Store
	engine   *reconcile.Engine
	tracker  *activity.Tracker
	detector *activity.Detector
	links    *activity.LinkHandler
	session  *session.Session
	mutator  *Mutator
	api      API
	clock    clock.Clock
	logger   *slog.Logger
}

// Status summarizes the portal after boot or sign-in.
type Status struct {
	Authenticated bool               `json:"authenticated"`
	Username      string             `json:"username,omitempty"`
	Favorites     []int              `json:"favorites"`
	PlayedToday   []string           `json:"playedToday"`
	Sync          *reconcile.Outcome `json:"sync,omitempty"`
}

// New wires a Portal.
func New(d Deps) *Portal {
	logger := d.Logger
	if logger == nil {
		logger = d.Port.Logger()
	}
	c := clock.OrSystem(d.Clock)
	sess := d.Session
	if sess == nil {
		sess = session.New(d.Port)
	}

	store := favorites.NewStore(d.Port, c)
	tracker := activity.NewTracker(d.Port, c)
	detector := activity.NewDetector(d.Port, c)

	var favAPI FavoritesAPI
	if d.API != nil {
		favAPI = d.API
	}

	return &Portal{
		store:    store,
		engine:   reconcile.NewEngine(store, logger),
		tracker:  tracker,
		detector: detector,
		links:    activity.NewLinkHandler(tracker, detector, d.Navigator, logger),
		session:  sess,
		mutator:  NewMutator(store, sess, favAPI, c, logger),
		api:      d.API,
		clock:    c,
		logger:   logger,
	}
}

// Session returns the portal's session.
func (p *Portal) Session() *session.Session { return p.session }

// Tracker returns the daily activity tracker.
func (p *Portal) Tracker() *activity.Tracker { return p.tracker }

// Detector returns the recent-visit detector.
func (p *Portal) Detector() *activity.Detector { return p.detector }

// Store returns the local favorites store.
func (p *Portal) Store() *favorites.Store { return p.store }

// Boot starts a session: it rolls the daily tracker over, loads stored
// tokens and, if there are any, fetches the profile and reconciles once.
// A failed auto-login clears the tokens and continues signed out.
func (p *Portal) Boot(ctx context.Context) (Status, result.Result) {
	_, dayRes := p.tracker.InitializeDailyTracking()
	loadRes := p.session.Load()

	if p.api == nil || !p.session.HasToken(p.clock.Now()) {
		return p.status(nil), result.Worst(dayRes, loadRes)
	}

	profile, err := p.api.Profile(ctx)
	if err != nil {
		p.logger.Info("auto-login failed, continuing signed out", "error", err)
		clearRes := p.session.Clear()
		return p.status(nil), result.Worst(dayRes, loadRes, clearRes)
	}

	out, syncRes := p.adopt(profile)
	return p.status(&out), result.Worst(dayRes, loadRes, syncRes)
}

// Login signs in, stores the tokens and reconciles favorites. The result
// covers the token write and the reconciliation; a degraded result still
// leaves the session signed in.
func (p *Portal) Login(ctx context.Context, username, password string) (Status, result.Result, error) {
	if p.api == nil {
		return Status{}, result.Result{}, fmt.Errorf("login: no account API configured")
	}
	resp, err := p.api.Login(ctx, username, password)
	if err != nil {
		return Status{}, result.Result{}, fmt.Errorf("login: %w", err)
	}
	st, res := p.signedIn("portal.login", resp)
	return st, res, nil
}

// Register creates an account, signs in and reconciles favorites.
func (p *Portal) Register(ctx context.Context, username, password string) (Status, result.Result, error) {
	if p.api == nil {
		return Status{}, result.Result{}, fmt.Errorf("register: no account API configured")
	}
	resp, err := p.api.Register(ctx, username, password)
	if err != nil {
		return Status{}, result.Result{}, fmt.Errorf("register: %w", err)
	}
	st, res := p.signedIn("portal.register", resp)
	return st, res, nil
}

func (p *Portal) signedIn(op string, resp remote.AuthResponse) (Status, result.Result) {
	tokRes := p.session.SetTokens(resp.Token, resp.RefreshToken)
	out, syncRes := p.adopt(resp.User)
	res := result.Worst(tokRes, syncRes)
	if res.Degraded() {
		p.logger.Warn("signed in with degraded local state", "result", res.String())
	}
	return p.status(&out), localOutcome(op, res)
}

// adopt reconciles against profile and makes the winner the session's view.
func (p *Portal) adopt(profile remote.Profile) (reconcile.Outcome, result.Result) {
	out, res := p.engine.Sync(reconcile.Snapshot{
		IDs:          profile.Favorites,
		LastModified: profile.LastModified(),
	})
	profile.Favorites = out.IDs
	p.session.SetProfile(profile)
	return out, res
}

// Logout revokes the refresh token if there is one and signs out. Tokens are
// cleared even when revocation fails; local favorites stay on the device.
func (p *Portal) Logout(ctx context.Context) error {
	var err error
	if p.api != nil {
		err = p.api.Logout(ctx, p.session.RefreshToken())
	}
	p.session.Clear()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Favorites returns the set to render. It always comes from the local store,
// signed in or not: reconciliation writes a server win into the store, and a
// failed mirror leaves the local change in place.
func (p *Portal) Favorites() []int {
	set, _ := p.store.Favorites()
	return set.IDs
}

// AddFavorite applies an optimistic add.
func (p *Portal) AddFavorite(ctx context.Context, id any) result.Result {
	_, res := p.mutator.AddFavorite(ctx, id)
	return res
}

// RemoveFavorite applies an optimistic remove.
func (p *Portal) RemoveFavorite(ctx context.Context, id any) result.Result {
	_, res := p.mutator.RemoveFavorite(ctx, id)
	return res
}

// IsFavorite reports whether id is a local favorite.
func (p *Portal) IsFavorite(id any) (bool, error) {
	return p.store.IsFavorite(id)
}

// OpenGame handles a game link click.
func (p *Portal) OpenGame(ctx context.Context, gameID any, gameURL string, ev activity.ClickEvent) (result.Result, error) {
	return p.links.HandleGameLinkClick(ctx, gameID, gameURL, ev)
}

// PendingScorePrompt returns the recent visit the player should be asked to
// score, if any: the click is within the window and the game has no score
// yet today.
func (p *Portal) PendingScorePrompt() (activity.RecentVisit, bool) {
	visit, ok := p.detector.CheckForRecentGameVisit()
	if !ok {
		return activity.RecentVisit{}, false
	}
	if p.tracker.State(visit.GameID) == activity.StateScored {
		return activity.RecentVisit{}, false
	}
	return visit, true
}

// DismissScorePrompt clears the recent visit without scoring.
func (p *Portal) DismissScorePrompt() result.Result {
	return p.detector.ClearRecentGameVisit()
}

// SubmitScore records a score for gameID. Locally the game becomes scored and
// a recent visit for it is cleared. When signed in the score is also sent to
// the server; a failure there is reported as KindRemoteFailed and the local
// state is kept.
func (p *Portal) SubmitScore(ctx context.Context, gameID int, score remote.Score, message string) result.Result {
	const op = "portal.submit_score"

	res := p.tracker.MarkScored(gameID)
	if visit, ok := p.detector.Recent(); ok && visit.GameID == fmt.Sprint(gameID) {
		res = result.Worst(res, p.detector.ClearRecentGameVisit())
	}
	if res.Kind == result.KindInvalid {
		return res
	}

	if p.api == nil || !p.session.Authenticated(p.clock.Now()) {
		return localOutcome(op, res)
	}

	profile, err := p.api.UpdatePlay(ctx, remote.PlayUpdate{GameID: gameID, Score: score, Message: message})
	if err != nil {
		p.logger.Error("error updating play", "game_id", gameID, "error", err)
		if errors.Is(err, remote.ErrUnauthorized) {
			p.session.Clear()
		}
		return result.Fail(result.KindRemoteFailed, op, "", err)
	}
	p.session.SetProfile(profile)
	return localOutcome(op, res)
}

// Wait blocks until background favorite mirroring has finished.
func (p *Portal) Wait() {
	p.mutator.Wait()
}

// RemoteFailures lists favorite mirroring failures seen so far.
func (p *Portal) RemoteFailures() []result.Result {
	return p.mutator.Failures()
}

func (p *Portal) status(out *reconcile.Outcome) Status {
	st := Status{
		Favorites:   p.Favorites(),
		PlayedToday: p.tracker.PlayedToday(),
		Sync:        out,
	}
	if prof, ok := p.session.Profile(); ok && p.session.Authenticated(p.clock.Now()) {
		st.Authenticated = true
		st.Username = prof.Username
	}
	return st
}

func localOutcome(op string, res result.Result) result.Result {
	if res.OK() {
		return result.OK(op)
	}
	res.Op = op
	return res
}
