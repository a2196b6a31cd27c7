package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/daveberzack/5-minute-react/internal/favorites"
)

// Profile is the authenticated user's profile as served by /auth/profile/.
type Profile struct {
	ID                    int             `json:"id,omitempty"`
	Username              string          `json:"username" validate:"max=150"`
	Favorites             []int           `json:"favorites"`
	FavoritesLastModified string          `json:"favoritesLastModified,omitempty"`
	TodayPlays            map[string]Play `json:"todayPlays,omitempty" validate:"dive"`
}

// LastModified parses FavoritesLastModified. A missing or unparsable value
// yields the zero time, which reconciliation treats as "server never
// recorded a change".
func (p Profile) LastModified() time.Time {
	if p.FavoritesLastModified == "" {
		return time.Time{}
	}
	t, err := favorites.ParseTimestamp(p.FavoritesLastModified)
	if err != nil {
		return time.Time{}
	}
	return t
}

// dropInvalidFavorites removes non-positive ids in place and reports how
// many were dropped.
func (p *Profile) dropInvalidFavorites() int {
	kept := p.Favorites[:0]
	for _, id := range p.Favorites {
		if id > 0 {
			kept = append(kept, id)
		}
	}
	dropped := len(p.Favorites) - len(kept)
	p.Favorites = kept
	return dropped
}

// Play is one game's submitted result for today.
type Play struct {
	Score   Score  `json:"score"`
	Message string `json:"message"`
}

// Score is a game score. The server and older clients send it as either a
// JSON string or a number; it is kept as text.
type Score string

// UnmarshalJSON accepts a string or a number.
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Score(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("score must be a string or number: %w", err)
	}
	*s = Score(n.String())
	return nil
}

// Credentials is the login and register request body.
type Credentials struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token        string  `json:"token" validate:"required"`
	RefreshToken string  `json:"refreshToken,omitempty"`
	User         Profile `json:"user"`
}

type favoriteRequest struct {
	GameID int `json:"game_id" validate:"gt=0"`
}

// PlayUpdate is the body of a score submission.
type PlayUpdate struct {
	GameID  int    `json:"game_id" validate:"gt=0"`
	Score   Score  `json:"score"`
	Message string `json:"message"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}
