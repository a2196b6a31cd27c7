package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daveberzack/5-minute-react/internal/config"
	"github.com/daveberzack/5-minute-react/internal/remote"
)

// cliEnv runs glg commands against a SQLite file in a temp directory so
// state carries over between invocations.
type cliEnv struct {
	t      *testing.T
	config string
}

func newCLIEnv(t *testing.T, extra string) *cliEnv {
	t.Helper()
	t.Setenv(config.EnvAPIURL, "")

	dir := t.TempDir()
	src := "storage: path: " + strconvQuote(filepath.Join(dir, "glg.db")) + "\n" +
		"device: location: \"UTC\"\n" + extra
	path := filepath.Join(dir, "glg.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return &cliEnv{t: t, config: path}
}

func strconvQuote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func (e *cliEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", e.config}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, stderr, err := e.run(args...)
	require.NoError(e.t, err, "stderr: %s", stderr)
	return out
}

// accountServer is a minimal account API over HTTP.
type accountServer struct {
	mu      sync.Mutex
	profile remote.Profile
	calls   []string
	failAdd bool
}

func newAccountServer(t *testing.T, favorites []int, lastModified string) (*accountServer, *httptest.Server) {
	t.Helper()
	a := &accountServer{
		profile: remote.Profile{ID: 7, Username: "ada", Favorites: favorites, FavoritesLastModified: lastModified},
	}
	srv := httptest.NewServer(http.HandlerFunc(a.serve))
	t.Cleanup(srv.Close)
	return a, srv
}

func (a *accountServer) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path != "/api/auth/login/" && r.Header.Get("Authorization") != "Token tok-1" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
		return
	}

	switch r.URL.Path {
	case "/api/auth/login/":
		_ = json.NewEncoder(w).Encode(remote.AuthResponse{Token: "tok-1", RefreshToken: "ref-1", User: a.profile})
	case "/api/auth/profile/":
		_ = json.NewEncoder(w).Encode(a.profile)
	case "/api/favorites/add/":
		if a.failAdd {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"database unavailable"}`))
			return
		}
		var body struct {
			GameID int `json:"game_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !slices.Contains(a.profile.Favorites, body.GameID) {
			a.profile.Favorites = append(a.profile.Favorites, body.GameID)
		}
		_, _ = w.Write([]byte(`{}`))
	case "/api/auth/logout/":
		_, _ = w.Write([]byte(`{}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (a *accountServer) failFavoriteAdds() {
	a.mu.Lock()
	a.failAdd = true
	a.mu.Unlock()
}

func (a *accountServer) recorded() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.calls)
}

func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	if data != nil {
		resp.Data = data
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}
