// Package remote is the HTTP client for the portal's account API: login,
// profile, favorites and plays.
//
// Every call is a single attempt. Callers decide what a failure means; the
// reconciliation layer treats mutation failures as best-effort and never
// retries.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/daveberzack/5-minute-react/internal/ids"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "https://localhost:5001/api"

	// DefaultAuthScheme prefixes the token in the Authorization header.
	DefaultAuthScheme = "Token"

	// DefaultTimeout bounds each request.
	DefaultTimeout = 20 * time.Second

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// ErrUnauthorized is returned for a 401 response. The stored tokens are no
// longer usable and should be cleared.
var ErrUnauthorized = errors.New("authentication failed")

// APIError represents a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details json.RawMessage
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("api error: %s (%d): %s", e.Code, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// Is makes a 401 APIError match ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type apiErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// TokenSource yields the current auth token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	AuthScheme string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     TokenSource
	RequestIDs ids.Generator
	Logger     *slog.Logger
}

// Client talks to the account API.
type Client struct {
	baseURL    string
	scheme     string
	httpClient *http.Client
	tokens     TokenSource
	requestIDs ids.Generator
	logger     *slog.Logger
}

// NewClient constructs a client. Zero-valued options take their defaults.
func NewClient(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if strings.TrimSpace(raw) == "" {
		raw = DefaultBaseURL
	}
	base, err := NormalizeBaseURL(raw)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	scheme := opts.AuthScheme
	if scheme == "" {
		scheme = DefaultAuthScheme
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    base,
		scheme:     scheme,
		httpClient: httpClient,
		tokens:     opts.Tokens,
		requestIDs: ids.OrDefault(opts.RequestIDs),
		logger:     logger,
	}, nil
}

// NormalizeBaseURL trims whitespace and trailing slashes and requires a
// scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("api url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("api url must include scheme and host (https://...)")
	}
	return strings.TrimRight(value, "/"), nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a token and the user's profile.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login/", username, password)
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, username, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register/", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (AuthResponse, error) {
	creds := Credentials{Username: strings.TrimSpace(username), Password: password}
	if err := validatePayload("credentials", creds); err != nil {
		return AuthResponse{}, err
	}
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, path, creds, &resp); err != nil {
		return AuthResponse{}, err
	}
	if err := validatePayload("auth response", resp); err != nil {
		return AuthResponse{}, err
	}
	c.sanitize(&resp.User)
	return resp, nil
}

// Logout revokes refreshToken on the server. With no refresh token there is
// nothing to revoke and no request is made.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return c.doJSON(ctx, http.MethodPost, "/auth/logout/", logoutRequest{RefreshToken: refreshToken}, nil)
}

// Profile fetches the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var p Profile
	if err := c.doJSON(ctx, http.MethodGet, "/auth/profile/", nil, &p); err != nil {
		return Profile{}, err
	}
	if err := validatePayload("profile", p); err != nil {
		return Profile{}, err
	}
	c.sanitize(&p)
	return p, nil
}

func (c *Client) sanitize(p *Profile) {
	if n := p.dropInvalidFavorites(); n > 0 {
		c.logger.Warn("server profile has invalid favorite ids, dropping them", "dropped", n)
	}
}

// AddFavorite adds gameID on the server and returns the refreshed profile.
func (c *Client) AddFavorite(ctx context.Context, gameID int) (Profile, error) {
	body := favoriteRequest{GameID: gameID}
	if err := validatePayload("favorite", body); err != nil {
		return Profile{}, err
	}
	if err := c.doJSON(ctx, http.MethodPost, "/favorites/add/", body, nil); err != nil {
		return Profile{}, err
	}
	return c.Profile(ctx)
}

// RemoveFavorite removes gameID on the server and returns the refreshed
// profile.
func (c *Client) RemoveFavorite(ctx context.Context, gameID int) (Profile, error) {
	if err := validatePayload("favorite", favoriteRequest{GameID: gameID}); err != nil {
		return Profile{}, err
	}
	path := "/favorites/" + strconv.Itoa(gameID) + "/remove/"
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return Profile{}, err
	}
	return c.Profile(ctx)
}

// UpdatePlay records today's score for a game and returns the refreshed
// profile.
func (c *Client) UpdatePlay(ctx context.Context, update PlayUpdate) (Profile, error) {
	if err := validatePayload("play", update); err != nil {
		return Profile{}, err
	}
	if err := c.doJSON(ctx, http.MethodPost, "/plays/update/", update, nil); err != nil {
		return Profile{}, err
	}
	return c.Profile(ctx)
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := c.requestIDs.Generate()
	req.Header.Set(RequestIDHeader, requestID)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", c.scheme+" "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respData)
	}
	if respBody == nil || len(bytes.TrimSpace(respData)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respData, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}
	var payload apiErrorPayload
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Code = payload.Error
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Detail
		}
		apiErr.Details = json.RawMessage(bytes.Clone(data))
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
