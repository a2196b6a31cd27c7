package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/daveberzack/5-minute-react/internal/favorites"
	"github.com/daveberzack/5-minute-react/internal/portal"
	"github.com/daveberzack/5-minute-react/internal/reconcile"
	"github.com/daveberzack/5-minute-react/internal/remote"
	"github.com/daveberzack/5-minute-react/internal/result"
	"github.com/daveberzack/5-minute-react/internal/storage"
	"github.com/daveberzack/5-minute-react/internal/testutil"
)

// Harness holds one scenario run's collaborators.
type Harness struct {
	portal *portal.Portal
	engine *reconcile.Engine
	server *Server
	clock  *testutil.ManualClock
}

// outcome is what a single step produced.
type outcome struct {
	res    result.Result
	output any
	value  *bool
	state  string
	source string
}

type operation func(ctx context.Context, h *Harness, args map[string]any) (outcome, error)

var operations map[string]operation

func init() {
	operations = map[string]operation{
		"favorites.add":          opFavoritesAdd,
		"favorites.remove":       opFavoritesRemove,
		"favorites.set":          opFavoritesSet,
		"favorites.get":          opFavoritesGet,
		"favorites.is":           opFavoritesIs,
		"favorites.clear":        opFavoritesClear,
		"sync":                   opSync,
		"activity.initialize":    opActivityInitialize,
		"activity.mark_played":   opActivityMarkPlayed,
		"activity.has_played":    opActivityHasPlayed,
		"activity.played":        opActivityPlayed,
		"activity.clear":         opActivityClear,
		"activity.mark_scored":   opActivityMarkScored,
		"activity.state":         opActivityState,
		"visit.store":            opVisitStore,
		"visit.check":            opVisitCheck,
		"visit.clear":            opVisitClear,
		"link.click":             opLinkClick,
		"portal.boot":            opPortalBoot,
		"portal.login":           opPortalLogin,
		"portal.logout":          opPortalLogout,
		"portal.add_favorite":    opPortalAddFavorite,
		"portal.remove_favorite": opPortalRemoveFavorite,
		"portal.submit_score":    opPortalSubmitScore,
		"portal.prompt":          opPortalPrompt,
		"server.offline":         opServerOffline,
		"clock.advance":          opClockAdvance,
	}
}

func needsServer(op string) bool {
	switch op {
	case "portal.login", "server.offline":
		return true
	}
	return false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh memory backend and a manual clock
// starting at the scenario's start time. A step whose arguments cannot be
// applied aborts the run with an error; expectation mismatches are recorded
// in the Result instead.
func Run(scenario *Scenario) (*Result, error) {
	start, err := time.Parse(time.RFC3339, scenario.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	clk := testutil.NewManualClock(start)
	port := storage.New(storage.NewMemory(), storage.WithLogger(testutil.DiscardLogger()))

	h := &Harness{clock: clk}
	deps := portal.Deps{
		Port:   port,
		Clock:  clk,
		Logger: testutil.DiscardLogger(),
	}
	if scenario.Server != nil {
		h.server = NewServer(*scenario.Server, clk)
		deps.API = h.server
	}
	h.portal = portal.New(deps)
	h.engine = reconcile.NewEngine(h.portal.Store(), testutil.DiscardLogger())

	ctx := context.Background()
	res := NewResult()

	for i, step := range scenario.Steps {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return nil, fmt.Errorf("step %d: advance: %w", i, err)
			}
			clk.Advance(d)
		}

		op, ok := operations[step.Op]
		if !ok {
			return nil, fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}
		out, err := op(ctx, h, step.Args)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}

		res.Trace = append(res.Trace, TraceEvent{
			Seq:    i + 1,
			Op:     step.Op,
			At:     favorites.FormatTimestamp(clk.Now()),
			Args:   step.Args,
			Kind:   kindOf(out.res),
			Output: out.output,
		})

		if step.Expect != nil {
			for _, msg := range h.check(step.Expect, out) {
				res.AddError(fmt.Sprintf("step %d (%s): %s", i+1, step.Op, msg))
			}
		}
	}

	return res, nil
}

func kindOf(r result.Result) string {
	if r.Kind == "" {
		return string(result.KindOK)
	}
	return string(r.Kind)
}

func (h *Harness) favoritesOutput() favoritesOutput {
	set, _ := h.portal.Store().Favorites()
	out := favoritesOutput{IDs: nonNil(set.IDs)}
	if set.Modified() {
		out.LastModified = favorites.FormatTimestamp(set.LastModified)
	}
	return out
}

func (h *Harness) statusOutput(st portal.Status) statusOutput {
	out := statusOutput{
		Authenticated: st.Authenticated,
		Username:      st.Username,
		Favorites:     nonNil(st.Favorites),
	}
	if st.Sync != nil {
		out.Source = string(st.Sync.Source)
	}
	return out
}

func opFavoritesAdd(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	_, res := h.portal.Store().Add(args["id"])
	return outcome{res: res, output: h.favoritesOutput()}, nil
}

func opFavoritesRemove(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	_, res := h.portal.Store().Remove(args["id"])
	return outcome{res: res, output: h.favoritesOutput()}, nil
}

func opFavoritesSet(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	ids, err := intList(args, "ids")
	if err != nil {
		return outcome{}, err
	}
	_, res := h.portal.Store().SetFavorites(ids)
	return outcome{res: res, output: h.favoritesOutput()}, nil
}

func opFavoritesGet(_ context.Context, h *Harness, _ map[string]any) (outcome, error) {
	_, res := h.portal.Store().Favorites()
	return outcome{res: res, output: h.favoritesOutput()}, nil
}

func opFavoritesIs(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	is, err := h.portal.IsFavorite(args["id"])
	if err != nil {
		return outcome{res: result.Fail(result.KindInvalid, "favorites.is", "", err)}, nil
	}
	return outcome{res: result.OK("favorites.is"), output: valueOutput{Value: is}, value: &is}, nil
}

func opFavoritesClear(_ context.Context, h *Harness, _ map[string]any) (outcome, error) {
	res := h.portal.Store().Clear()
	return outcome{res: res, output: h.favoritesOutput()}, nil
}

// opSync reconciles local favorites against the ids and last_modified args,
// or against the server's current copy when no ids are given.
func opSync(ctx context.Context, h *Harness, args map[string]any) (outcome, error) {
	var snap reconcile.Snapshot
	if _, ok := args["ids"]; ok {
		ids, err := intList(args, "ids")
		if err != nil {
			return outcome{}, err
		}
		snap.IDs = ids
		if s, _ := args["last_modified"].(string); s != "" {
			ts, err := favorites.ParseTimestamp(s)
			if err != nil {
				return outcome{}, fmt.Errorf("last_modified: %w", err)
			}
			snap.LastModified = ts
		}
	} else {
		if h.server == nil {
			return outcome{}, fmt.Errorf("sync without ids needs a server block")
		}
		profile, err := h.server.Profile(ctx)
		if err != nil {
			return outcome{res: result.Fail(result.KindRemoteFailed, "reconcile.sync", "", err)}, nil
		}
		snap = reconcile.Snapshot{IDs: profile.Favorites, LastModified: profile.LastModified()}
	}

	out, res := h.engine.Sync(snap)
	so := syncOutput{IDs: nonNil(out.IDs), Source: string(out.Source)}
	if !out.Timestamp.IsZero() {
		so.Timestamp = favorites.FormatTimestamp(out.Timestamp)
	}
	return outcome{res: res, output: so, source: string(out.Source)}, nil
}

func opActivityInitialize(_ context.Context, h *Harness, _ map[string]any) (outcome, error) {
	played, res := h.portal.Tracker().InitializeDailyTracking()
	return outcome{res: res, output: playedOutput{Played: played}}, nil
}

func opActivityMarkPlayed(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	played, res := h.portal.Tracker().MarkPlayed(args["id"])
	return outcome{res: res, output: playedOutput{Played: nonNilStrings(played)}}, nil
}

func opActivityHasPlayed(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	played := h.portal.Tracker().HasPlayedToday(args["id"])
	return outcome{res: result.OK("activity.has_played"), output: valueOutput{Value: played}, value: &played}, nil
}

func opActivityPlayed(_ context.Context, h *Harness, _ map[string]any) (outcome, error) {
	return outcome{res: result.OK("activity.played"), output: playedOutput{Played: h.portal.Tracker().PlayedToday()}}, nil
}

func opActivityClear(_ context.Context, h *Harness, _ map[string]any) (outcome, error) {
	res := h.portal.Tracker().ClearPlayedToday()
	return outcome{res: res, output: playedOutput{Played: h.portal.Tracker().PlayedToday()}}, nil
}

func opActivityMarkScored(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	res := h.portal.Tracker().MarkScored(args["id"])
	state := string(h.portal.Tracker().State(args["id"]))
	return outcome{res: res, output: stateOutput{State: state}, state: state}, nil
}

func opActivityState(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	state := string(h.portal.Tracker().State(args["id"]))
	return outcome{res: result.OK("activity.state"), output: stateOutput{State: state}, state: state}, nil
}

func opVisitStore(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	url, _ := args["url"].(string)
	res := h.portal.Detector().StoreRecentGameClick(args["id"], url)
	return outcome{res: res}, nil
}

func opVisitCheck(_ context.Context, h *Harness, _ map[string]any) (outcome, error) {
	visit, ok := h.portal.Detector().CheckForRecentGameVisit()
	out := outcome{res: result.OK("activity.check_visit"), value: &ok}
	if ok {
		out.output = visitOutput{
			GameID:    visit.GameID,
			URL:       visit.GameURL,
			ClickTime: favorites.FormatTimestamp(visit.ClickTime),
		}
	}
	return out, nil
}

func opVisitClear(_ context.Context, h *Harness, _ map[string]any) (outcome, error) {
	return outcome{res: h.portal.DismissScorePrompt()}, nil
}

func opLinkClick(ctx context.Context, h *Harness, args map[string]any) (outcome, error) {
	url, _ := args["url"].(string)
	res, err := h.portal.OpenGame(ctx, args["id"], url, nil)
	if err != nil {
		return outcome{res: res, output: errorOutput{Error: err.Error()}}, nil
	}
	return outcome{res: res, output: playedOutput{Played: h.portal.Tracker().PlayedToday()}}, nil
}

func opPortalBoot(ctx context.Context, h *Harness, _ map[string]any) (outcome, error) {
	st, res := h.portal.Boot(ctx)
	out := outcome{res: res, output: h.statusOutput(st)}
	if st.Sync != nil {
		out.source = string(st.Sync.Source)
	}
	return out, nil
}

func opPortalLogin(ctx context.Context, h *Harness, args map[string]any) (outcome, error) {
	username, _ := args["username"].(string)
	password, _ := args["password"].(string)
	st, res, err := h.portal.Login(ctx, username, password)
	if err != nil {
		return outcome{res: result.Fail(result.KindRemoteFailed, "portal.login", "", err), output: errorOutput{Error: err.Error()}}, nil
	}
	out := outcome{res: res, output: h.statusOutput(st)}
	if st.Sync != nil {
		out.source = string(st.Sync.Source)
	}
	return out, nil
}

func opPortalLogout(ctx context.Context, h *Harness, _ map[string]any) (outcome, error) {
	if err := h.portal.Logout(ctx); err != nil {
		return outcome{res: result.Fail(result.KindRemoteFailed, "portal.logout", "", err), output: errorOutput{Error: err.Error()}}, nil
	}
	return outcome{res: result.OK("portal.logout")}, nil
}

// opPortalAddFavorite waits for the server mirror. A mirror failure is
// reported as the step's kind; the local write still shows in the output.
func opPortalAddFavorite(ctx context.Context, h *Harness, args map[string]any) (outcome, error) {
	return h.mutate(func() result.Result { return h.portal.AddFavorite(ctx, args["id"]) })
}

func opPortalRemoveFavorite(ctx context.Context, h *Harness, args map[string]any) (outcome, error) {
	return h.mutate(func() result.Result { return h.portal.RemoveFavorite(ctx, args["id"]) })
}

func (h *Harness) mutate(apply func() result.Result) (outcome, error) {
	before := len(h.portal.RemoteFailures())
	res := apply()
	h.portal.Wait()
	if failures := h.portal.RemoteFailures(); len(failures) > before && res.OK() {
		res = failures[len(failures)-1]
	}
	return outcome{res: res, output: h.favoritesOutput()}, nil
}

func opPortalSubmitScore(ctx context.Context, h *Harness, args map[string]any) (outcome, error) {
	id, err := favorites.ParseID(args["id"])
	if err != nil {
		return outcome{}, err
	}
	var score remote.Score
	if v, ok := args["score"]; ok && v != nil {
		score = remote.Score(fmt.Sprint(v))
	}
	message, _ := args["message"].(string)
	res := h.portal.SubmitScore(ctx, id, score, message)
	state := string(h.portal.Tracker().State(id))
	return outcome{res: res, output: stateOutput{State: state}, state: state}, nil
}

func opPortalPrompt(_ context.Context, h *Harness, _ map[string]any) (outcome, error) {
	visit, ok := h.portal.PendingScorePrompt()
	out := outcome{res: result.OK("portal.prompt"), value: &ok}
	if ok {
		out.output = visitOutput{
			GameID:    visit.GameID,
			URL:       visit.GameURL,
			ClickTime: favorites.FormatTimestamp(visit.ClickTime),
		}
	}
	return out, nil
}

func opServerOffline(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	offline := true
	if v, ok := args["offline"].(bool); ok {
		offline = v
	}
	h.server.SetOffline(offline)
	return outcome{res: result.OK("server.offline")}, nil
}

func opClockAdvance(_ context.Context, h *Harness, args map[string]any) (outcome, error) {
	by, _ := args["by"].(string)
	d, err := time.ParseDuration(by)
	if err != nil {
		return outcome{}, fmt.Errorf("by: %w", err)
	}
	h.clock.Advance(d)
	return outcome{res: result.OK("clock.advance")}, nil
}

// intList reads a YAML sequence of game ids.
func intList(args map[string]any, key string) ([]int, error) {
	raw, ok := args[key].([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list", key)
	}
	ids := make([]int, 0, len(raw))
	for i, v := range raw {
		id, err := favorites.ParseID(v)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

func nonNilStrings(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
