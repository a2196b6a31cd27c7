package harness

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/daveberzack/5-minute-react/internal/clock"
	"github.com/daveberzack/5-minute-react/internal/favorites"
	"github.com/daveberzack/5-minute-react/internal/portal"
	"github.com/daveberzack/5-minute-react/internal/remote"
)

// ErrOffline is returned by an offline Server.
var ErrOffline = errors.New("account server offline")

// serverToken is the opaque access token the Server hands out.
const serverToken = "harness-token"

// Server is an in-memory account API. Favorite mutations stamp
// favoritesLastModified with the scenario clock.
type Server struct {
	mu      sync.Mutex
	clock   clock.Clock
	profile remote.Profile
	offline bool
	plays   []remote.PlayUpdate
}

var _ portal.API = (*Server)(nil)

// NewServer starts a server holding state for a single account.
func NewServer(state ServerState, c clock.Clock) *Server {
	return &Server{
		clock: c,
		profile: remote.Profile{
			ID:                    1,
			Username:              "player",
			Favorites:             favorites.Canonicalize(state.Favorites),
			FavoritesLastModified: state.LastModified,
		},
		offline: state.Offline,
	}
}

// SetOffline makes every call fail with ErrOffline.
func (s *Server) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

// Favorites returns the server's copy of the set.
func (s *Server) Favorites() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.profile.Favorites)
}

// Plays returns the score updates received.
func (s *Server) Plays() []remote.PlayUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.plays)
}

func (s *Server) Login(_ context.Context, username, _ string) (remote.AuthResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return remote.AuthResponse{}, ErrOffline
	}
	if username != "" {
		s.profile.Username = username
	}
	return remote.AuthResponse{Token: serverToken, RefreshToken: "harness-refresh", User: s.snapshot()}, nil
}

func (s *Server) Register(ctx context.Context, username, password string) (remote.AuthResponse, error) {
	return s.Login(ctx, username, password)
}

func (s *Server) Logout(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ErrOffline
	}
	return nil
}

func (s *Server) Profile(context.Context) (remote.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return remote.Profile{}, ErrOffline
	}
	return s.snapshot(), nil
}

func (s *Server) AddFavorite(_ context.Context, gameID int) (remote.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return remote.Profile{}, ErrOffline
	}
	if !slices.Contains(s.profile.Favorites, gameID) {
		s.profile.Favorites = append(s.profile.Favorites, gameID)
		s.touch()
	}
	return s.snapshot(), nil
}

func (s *Server) RemoveFavorite(_ context.Context, gameID int) (remote.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return remote.Profile{}, ErrOffline
	}
	if slices.Contains(s.profile.Favorites, gameID) {
		s.profile.Favorites = slices.DeleteFunc(s.profile.Favorites, func(v int) bool { return v == gameID })
		s.touch()
	}
	return s.snapshot(), nil
}

func (s *Server) UpdatePlay(_ context.Context, update remote.PlayUpdate) (remote.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return remote.Profile{}, ErrOffline
	}
	s.plays = append(s.plays, update)
	return s.snapshot(), nil
}

func (s *Server) touch() {
	s.profile.FavoritesLastModified = favorites.FormatTimestamp(s.clock.Now())
}

// snapshot copies the profile. Callers hold s.mu.
func (s *Server) snapshot() remote.Profile {
	p := s.profile
	p.Favorites = slices.Clone(p.Favorites)
	if p.Favorites == nil {
		p.Favorites = []int{}
	}
	return p
}
