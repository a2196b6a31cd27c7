package portal

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/daveberzack/5-minute-react/internal/remote"
)

var errOffline = errors.New("offline")

// fakeAPI is an in-memory account server.
type fakeAPI struct {
	mu        sync.Mutex
	profile   remote.Profile
	token     string
	fail      error
	gate      chan struct{}
	calls     []string
	plays     []remote.PlayUpdate
	refreshed []string
}

func newFakeAPI(favs []int, lastModified string) *fakeAPI {
	return &fakeAPI{
		profile: remote.Profile{ID: 1, Username: "ada", Favorites: favs, FavoritesLastModified: lastModified},
		token:   "tok-1",
	}
}

func (f *fakeAPI) enter(call string) error {
	f.mu.Lock()
	gate := f.gate
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *fakeAPI) snapshot() remote.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profile
	p.Favorites = slices.Clone(p.Favorites)
	return p
}

func (f *fakeAPI) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func (f *fakeAPI) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeAPI) Login(_ context.Context, username, _ string) (remote.AuthResponse, error) {
	if err := f.enter("login " + username); err != nil {
		return remote.AuthResponse{}, err
	}
	return remote.AuthResponse{Token: f.token, RefreshToken: "ref-1", User: f.snapshot()}, nil
}

func (f *fakeAPI) Register(_ context.Context, username, _ string) (remote.AuthResponse, error) {
	if err := f.enter("register " + username); err != nil {
		return remote.AuthResponse{}, err
	}
	return remote.AuthResponse{Token: f.token, User: f.snapshot()}, nil
}

func (f *fakeAPI) Logout(_ context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	f.mu.Lock()
	f.refreshed = append(f.refreshed, refreshToken)
	f.mu.Unlock()
	return f.enter("logout")
}

func (f *fakeAPI) Profile(context.Context) (remote.Profile, error) {
	if err := f.enter("profile"); err != nil {
		return remote.Profile{}, err
	}
	return f.snapshot(), nil
}

func (f *fakeAPI) AddFavorite(_ context.Context, gameID int) (remote.Profile, error) {
	if err := f.enter("add"); err != nil {
		return remote.Profile{}, err
	}
	f.mu.Lock()
	if !slices.Contains(f.profile.Favorites, gameID) {
		f.profile.Favorites = append(f.profile.Favorites, gameID)
	}
	f.mu.Unlock()
	return f.snapshot(), nil
}

func (f *fakeAPI) RemoveFavorite(_ context.Context, gameID int) (remote.Profile, error) {
	if err := f.enter("remove"); err != nil {
		return remote.Profile{}, err
	}
	f.mu.Lock()
	f.profile.Favorites = slices.DeleteFunc(f.profile.Favorites, func(v int) bool { return v == gameID })
	f.mu.Unlock()
	return f.snapshot(), nil
}

func (f *fakeAPI) UpdatePlay(_ context.Context, update remote.PlayUpdate) (remote.Profile, error) {
	if err := f.enter("play"); err != nil {
		return remote.Profile{}, err
	}
	f.mu.Lock()
	f.plays = append(f.plays, update)
	f.mu.Unlock()
	return f.snapshot(), nil
}

var _ API = (*fakeAPI)(nil)
var _ API = (*remote.Client)(nil)
