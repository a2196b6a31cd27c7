// Package reconcile implements the Sync Engine: it decides whether the local
// favorites or the server's copy is authoritative and applies the decision.
//
// # Known Limitation: whole-set last-write-wins
//
// Reconciliation compares two timestamps and keeps one side wholesale. It is
// not an item-level merge: when the server snapshot is newer, favorites added
// locally before the comparison are discarded, and edits made concurrently on
// two devices can be lost. Callers needing per-item merge must layer it on
// top; this package intentionally does not.
package reconcile

import (
	"slices"
	"time"

	"github.com/daveberzack/5-minute-react/internal/favorites"
)

// Source identifies which side of a reconciliation won.
type Source string

const (
	// SourceLocal means the local set was kept unchanged.
	SourceLocal Source = "local"

	// SourceServer means the server set was adopted.
	SourceServer Source = "server"
)

// Outcome is the transient result of one reconciliation.
type Outcome struct {
	// IDs is the reconciled favorite set.
	IDs []int `json:"ids"`

	// Source names the winning side.
	Source Source `json:"source"`

	// Timestamp is the winning side's last-modified time; zero if that side
	// never recorded one.
	Timestamp time.Time `json:"timestamp"`

	// ServerIDs is what the server reported, kept so callers can tell whether
	// a local win leaves the server behind.
	ServerIDs []int `json:"-"`
}

// LocalAhead reports whether local won while holding a different set than the
// server. The server copy is stale until the next mutation reaches it.
func (o Outcome) LocalAhead() bool {
	if o.Source != SourceLocal {
		return false
	}
	return !(favorites.FavoriteSet{IDs: o.IDs}).SameIDs(o.ServerIDs)
}

// Decide applies the reconciliation rules, in order:
//
//  1. Local never written: adopt the server set if non-empty, else keep the
//     empty local set.
//  2. Server timestamp absent: keep local.
//  3. Server strictly newer: adopt server. Otherwise, including a tie, keep
//     local.
//
// Decide is pure; Engine.Sync also persists a server win.
func Decide(local favorites.FavoriteSet, serverIDs []int, serverLastModified time.Time) Outcome {
	server := favorites.Canonicalize(serverIDs)

	keepLocal := Outcome{
		IDs:       slices.Clone(local.IDs),
		Source:    SourceLocal,
		Timestamp: local.LastModified,
		ServerIDs: server,
	}
	adoptServer := Outcome{
		IDs:       server,
		Source:    SourceServer,
		Timestamp: serverLastModified,
		ServerIDs: server,
	}

	if keepLocal.IDs == nil {
		keepLocal.IDs = []int{}
	}

	switch {
	case !local.Modified():
		if len(server) > 0 {
			return adoptServer
		}
		return keepLocal
	case serverLastModified.IsZero():
		return keepLocal
	case serverLastModified.After(local.LastModified):
		return adoptServer
	default:
		return keepLocal
	}
}
