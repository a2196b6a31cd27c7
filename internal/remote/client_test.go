package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveberzack/5-minute-react/internal/ids"
	"github.com/daveberzack/5-minute-react/internal/testutil"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type recorded struct {
	Method string
	Path   string
	Auth   string
	ReqID  string
	Body   string
}

type fakeAPI struct {
	mu      sync.Mutex
	calls   []recorded
	profile Profile
	status  map[string]int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{
		profile: Profile{ID: 1, Username: "ada", Favorites: []int{3}, FavoritesLastModified: "2024-01-01T00:03:20.000Z"},
		status:  map[string]int{},
	}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	a.mu.Lock()
	a.calls = append(a.calls, recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
		ReqID:  r.Header.Get(RequestIDHeader),
		Body:   string(body),
	})
	status, forced := a.status[r.URL.Path]
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if forced {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"forced failure"}`))
		return
	}

	switch r.URL.Path {
	case "/api/auth/login/", "/api/auth/register/":
		_ = json.NewEncoder(w).Encode(AuthResponse{Token: "tok-1", User: a.profile})
	case "/api/auth/profile/":
		_ = json.NewEncoder(w).Encode(a.profile)
	case "/api/favorites/add/", "/api/favorites/9/remove/", "/api/plays/update/", "/api/auth/logout/":
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *fakeAPI) recorded() []recorded {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]recorded(nil), a.calls...)
}

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:    srv.URL + "/api/",
		Tokens:     staticToken(token),
		RequestIDs: ids.NewFixedGenerator("req-1", "req-2", "req-3", "req-4"),
		Logger:     testutil.DiscardLogger(),
	})
	require.NoError(t, err)
	return c
}

func TestNormalizeBaseURL(t *testing.T) {
	got, err := NormalizeBaseURL("  https://example.com/api//  ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api", got)

	_, err = NormalizeBaseURL("example.com/api")
	assert.Error(t, err)
	_, err = NormalizeBaseURL("")
	assert.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultAuthScheme, c.scheme)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestLogin(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, "")

	resp, err := c.Login(context.Background(), " ada ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, "ada", resp.User.Username)

	calls := api.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Empty(t, calls[0].Auth, "no token, no header")
	assert.Equal(t, "req-1", calls[0].ReqID)
	assert.JSONEq(t, `{"username":"ada","password":"pw"}`, calls[0].Body)
}

func TestLogin_RejectsEmptyCredentials(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, "")

	_, err := c.Login(context.Background(), "", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Empty(t, api.recorded())
}

func TestProfile_SendsTokenHeader(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, "abc")

	p, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3}, p.Favorites)
	assert.True(t, p.LastModified().Equal(time.Date(2024, 1, 1, 0, 3, 20, 0, time.UTC)))
	assert.Equal(t, "Token abc", api.recorded()[0].Auth)
}

func TestProfile_InvalidFavoritesDropped(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.profile.Favorites = []int{3, -1, 0, 7}
	c := newTestClient(t, srv, "abc")

	p, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, p.Favorites)
	assert.Equal(t, "ada", p.Username)
}

func TestAddFavorite_RefetchesProfile(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, "abc")

	_, err := c.AddFavorite(context.Background(), 5)
	require.NoError(t, err)

	calls := api.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "/api/favorites/add/", calls[0].Path)
	assert.JSONEq(t, `{"game_id":5}`, calls[0].Body)
	assert.Equal(t, "/api/auth/profile/", calls[1].Path)
	assert.NotEqual(t, calls[0].ReqID, calls[1].ReqID)
}

func TestRemoveFavorite(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, "abc")

	_, err := c.RemoveFavorite(context.Background(), 9)
	require.NoError(t, err)
	calls := api.recorded()
	assert.Equal(t, http.MethodDelete, calls[0].Method)
	assert.Equal(t, "/api/favorites/9/remove/", calls[0].Path)
}

func TestRemoveFavorite_InvalidIDNotSent(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, "abc")

	_, err := c.RemoveFavorite(context.Background(), 0)
	require.Error(t, err)
	assert.Empty(t, api.recorded())
}

func TestUpdatePlay(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, "abc")

	_, err := c.UpdatePlay(context.Background(), PlayUpdate{GameID: 4, Score: "3", Message: "nice"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"game_id":4,"score":"3","message":"nice"}`, api.recorded()[0].Body)
}

func TestLogout_SkipsWithoutRefreshToken(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv, "abc")

	require.NoError(t, c.Logout(context.Background(), ""))
	assert.Empty(t, api.recorded())

	require.NoError(t, c.Logout(context.Background(), "r1"))
	assert.JSONEq(t, `{"refreshToken":"r1"}`, api.recorded()[0].Body)
}

func TestUnauthorized(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.status["/api/auth/profile/"] = http.StatusUnauthorized
	c := newTestClient(t, srv, "stale")

	_, err := c.Profile(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestServerError(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.status["/api/favorites/add/"] = http.StatusInternalServerError
	c := newTestClient(t, srv, "abc")

	_, err := c.AddFavorite(context.Background(), 5)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "forced failure", apiErr.Message)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Len(t, api.recorded(), 1, "no profile re-fetch after a failed mutation")
}

func TestAPIError_Messages(t *testing.T) {
	assert.Equal(t, "HTTP error! status: 502", newAPIError(502, []byte("")).Error())
	assert.Equal(t, "api error (502): bad gateway", newAPIError(502, []byte("bad gateway")).Error())
	assert.Equal(t, "api error: conflict (409): taken",
		newAPIError(409, []byte(`{"error":"conflict","message":"taken"}`)).Error())
	assert.Equal(t, "api error (403): nope", newAPIError(403, []byte(`{"detail":"nope"}`)).Error())
}

func TestScore_UnmarshalNumberOrString(t *testing.T) {
	var p Play
	require.NoError(t, json.Unmarshal([]byte(`{"score":4,"message":"m"}`), &p))
	assert.Equal(t, Score("4"), p.Score)

	require.NoError(t, json.Unmarshal([]byte(`{"score":"3/6"}`), &p))
	assert.Equal(t, Score("3/6"), p.Score)

	require.NoError(t, json.Unmarshal([]byte(`{"score":null}`), &p))
	assert.Equal(t, Score(""), p.Score)

	assert.Error(t, json.Unmarshal([]byte(`{"score":true}`), &p))
}

func TestProfile_LastModifiedTolerant(t *testing.T) {
	assert.True(t, Profile{}.LastModified().IsZero())
	assert.True(t, Profile{FavoritesLastModified: "yesterday"}.LastModified().IsZero())
}
