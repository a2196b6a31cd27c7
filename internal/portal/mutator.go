package portal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/daveberzack/5-minute-react/internal/clock"
	"github.com/daveberzack/5-minute-react/internal/favorites"
	"github.com/daveberzack/5-minute-react/internal/remote"
	"github.com/daveberzack/5-minute-react/internal/result"
	"github.com/daveberzack/5-minute-react/internal/session"
)

// FavoritesAPI is the remote half of a favorite mutation.
type FavoritesAPI interface {
	AddFavorite(ctx context.Context, gameID int) (remote.Profile, error)
	RemoveFavorite(ctx context.Context, gameID int) (remote.Profile, error)
}

// Mutator applies favorite changes locally first and mirrors them to the
// server in the background.
//
// The local write is authoritative: a failed remote call is logged and
// recorded in Failures, never rolled back and never retried. A divergent
// server copy is only corrected by the next reconciliation.
type Mutator struct {
	store   *favorites.Store
	session *session.Session
	api     FavoritesAPI
	clock   clock.Clock
	logger  *slog.Logger

	wg       sync.WaitGroup
	mu       sync.Mutex
	failures []result.Result
}

// NewMutator wires a Mutator. api may be nil for a device-only portal.
func NewMutator(store *favorites.Store, sess *session.Session, api FavoritesAPI, c clock.Clock, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{
		store:   store,
		session: sess,
		api:     api,
		clock:   clock.OrSystem(c),
		logger:  logger,
	}
}

// AddFavorite adds id locally and, when signed in, on the server.
// The returned result describes the local write only.
func (m *Mutator) AddFavorite(ctx context.Context, id any) (time.Time, result.Result) {
	ts, res := m.store.Add(id)
	m.mirror(ctx, "favorites.remote_add", id, res, func(ctx context.Context, api FavoritesAPI, gameID int) (remote.Profile, error) {
		return api.AddFavorite(ctx, gameID)
	})
	return ts, res
}

// RemoveFavorite removes id locally and, when signed in, on the server.
// The returned result describes the local write only.
func (m *Mutator) RemoveFavorite(ctx context.Context, id any) (time.Time, result.Result) {
	ts, res := m.store.Remove(id)
	m.mirror(ctx, "favorites.remote_remove", id, res, func(ctx context.Context, api FavoritesAPI, gameID int) (remote.Profile, error) {
		return api.RemoveFavorite(ctx, gameID)
	})
	return ts, res
}

// Wait blocks until every background remote call has returned.
func (m *Mutator) Wait() {
	m.wg.Wait()
}

// Failures returns the remote failures recorded so far.
func (m *Mutator) Failures() []result.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]result.Result(nil), m.failures...)
}

type remoteCall func(ctx context.Context, api FavoritesAPI, gameID int) (remote.Profile, error)

func (m *Mutator) mirror(ctx context.Context, op string, id any, local result.Result, call remoteCall) {
	if local.Kind == result.KindInvalid || m.api == nil || m.session == nil {
		return
	}
	if !m.session.Authenticated(m.clock.Now()) {
		return
	}
	gameID, err := favorites.ParseID(id)
	if err != nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		profile, err := call(ctx, m.api, gameID)
		if err != nil {
			m.logger.Error("error syncing favorite to server", "op", op, "game_id", gameID, "error", err)
			if errors.Is(err, remote.ErrUnauthorized) {
				m.session.Clear()
			}
			m.record(result.Fail(result.KindRemoteFailed, op, favorites.Key, err))
			return
		}
		m.session.SetProfile(profile)
		m.logger.Debug("favorite synced to server", "op", op, "game_id", gameID, "server_count", len(profile.Favorites))
	}()
}

func (m *Mutator) record(r result.Result) {
	m.mu.Lock()
	m.failures = append(m.failures, r)
	m.mu.Unlock()
}
