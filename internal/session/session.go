// Package session holds the signed-in state: auth tokens and the last known
// profile. A Session is passed explicitly to the components that need it.
package session

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/daveberzack/5-minute-react/internal/remote"
	"github.com/daveberzack/5-minute-react/internal/result"
	"github.com/daveberzack/5-minute-react/internal/storage"
)

// Storage keys for the persisted tokens.
const (
	KeyAuthToken    = "authToken"
	KeyRefreshToken = "refreshToken"
)

// Session is safe for concurrent use. Remote calls running in the background
// update the profile while the caller reads it.
type Session struct {
	port   *storage.Port
	logger *slog.Logger

	mu      sync.RWMutex
	token   string
	refresh string
	profile *remote.Profile
}

// New creates an empty session persisting tokens through p.
func New(p *storage.Port) *Session {
	return &Session{port: p, logger: p.Logger()}
}

// Load reads persisted tokens. The profile stays unset until fetched.
func (s *Session) Load() result.Result {
	token, _, tokRes := s.port.Get(KeyAuthToken)
	refresh, _, refRes := s.port.Get(KeyRefreshToken)

	s.mu.Lock()
	s.token = token
	s.refresh = refresh
	s.mu.Unlock()

	res := result.Worst(tokRes, refRes)
	if res.OK() {
		return result.OK("session.load")
	}
	res.Op = "session.load"
	return res
}

// SetTokens stores new tokens in memory and persists them. An empty refresh
// token removes any stored one.
func (s *Session) SetTokens(token, refresh string) result.Result {
	s.mu.Lock()
	s.token = token
	s.refresh = refresh
	s.mu.Unlock()

	refRes := s.port.Remove(KeyRefreshToken)
	if refresh != "" {
		refRes = s.port.Set(KeyRefreshToken, refresh)
	}
	res := result.Worst(s.port.Set(KeyAuthToken, token), refRes)
	if res.Degraded() {
		s.logger.Error("error saving auth tokens", "error", res.Err)
	}
	res.Op = "session.set_tokens"
	return res
}

// Clear signs out: tokens and profile are dropped from memory and storage.
func (s *Session) Clear() result.Result {
	s.mu.Lock()
	s.token = ""
	s.refresh = ""
	s.profile = nil
	s.mu.Unlock()

	res := result.Worst(s.port.Remove(KeyAuthToken), s.port.Remove(KeyRefreshToken))
	if res.Degraded() {
		s.logger.Error("error clearing auth tokens", "error", res.Err)
	}
	res.Op = "session.clear"
	return res
}

// Token returns the current auth token. It satisfies remote.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// HasToken reports whether a usable token is held at now.
func (s *Session) HasToken(now time.Time) bool {
	token := s.Token()
	return token != "" && !TokenExpired(token, now)
}

// Authenticated reports whether a usable token is held and the profile has
// been loaded.
func (s *Session) Authenticated(now time.Time) bool {
	s.mu.RLock()
	loaded := s.profile != nil
	s.mu.RUnlock()
	return loaded && s.HasToken(now)
}

// Profile returns a copy of the loaded profile.
func (s *Session) Profile() (remote.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return remote.Profile{}, false
	}
	p := *s.profile
	p.Favorites = slices.Clone(p.Favorites)
	p.TodayPlays = maps.Clone(p.TodayPlays)
	return p, true
}

// SetProfile replaces the loaded profile. The last writer wins.
func (s *Session) SetProfile(p remote.Profile) {
	p.Favorites = slices.Clone(p.Favorites)
	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()
}

// TokenExpired reports whether token is a JWT whose exp claim is at or before
// now. Opaque tokens and JWTs without exp never expire locally. The signature
// is not checked; the server remains the authority.
func TokenExpired(token string, now time.Time) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
