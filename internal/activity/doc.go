// Package activity tracks per-day game activity on the device.
//
// Tracker keeps the set of games clicked into today, reset when the
// device-local calendar date changes. Detector remembers the most recent game
// link click for a fixed window so the portal can prompt for a score when the
// player comes back. LinkHandler composes both with navigation.
//
// Per game and day the implied states are
//
//	not_played -> played_pending_score (link click) -> scored (score submit)
//
// Submitting a score also clears the recent-visit record.
package activity
