package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daveberzack/5-minute-react/internal/result"
)

// ClickEvent is the UI event that triggered a link click.
type ClickEvent interface {
	PreventDefault()
}

// Navigator opens a game URL.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// LinkHandler handles clicks on game links.
type LinkHandler struct {
	tracker  *Tracker
	detector *Detector
	nav      Navigator
	logger   *slog.Logger
}

// NewLinkHandler wires a LinkHandler. A nil logger means slog.Default().
func NewLinkHandler(tracker *Tracker, detector *Detector, nav Navigator, logger *slog.Logger) *LinkHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkHandler{tracker: tracker, detector: detector, nav: nav, logger: logger}
}

// HandleGameLinkClick marks the game played, stores the recent click, then
// navigates to gameURL. ev is optional; when given its default action is
// prevented first.
//
// The result reports the bookkeeping; navigation failures are returned
// separately as the error and never undo the bookkeeping.
func (h *LinkHandler) HandleGameLinkClick(ctx context.Context, gameID any, gameURL string, ev ClickEvent) (result.Result, error) {
	if ev != nil {
		ev.PreventDefault()
	}

	_, markRes := h.tracker.MarkPlayed(gameID)
	storeRes := h.detector.StoreRecentGameClick(gameID, gameURL)
	res := result.Worst(storeRes, markRes)
	if res.OK() {
		res = result.OK("activity.link_click")
	}

	if h.nav == nil {
		return res, nil
	}
	if err := h.nav.Navigate(ctx, gameURL); err != nil {
		h.logger.Warn("navigation to game failed", "url", gameURL, "error", err)
		return res, fmt.Errorf("navigate to %s: %w", gameURL, err)
	}
	return res, nil
}
