package reconcile

import (
	"log/slog"
	"time"

	"github.com/daveberzack/5-minute-react/internal/favorites"
	"github.com/daveberzack/5-minute-react/internal/result"
)

// Snapshot is the server's view of the favorites, as reported by a profile
// fetch. A zero LastModified means the server never recorded one.
type Snapshot struct {
	IDs          []int
	LastModified time.Time
}

// Engine reconciles a favorites.Store against server snapshots.
type Engine struct {
	store  *favorites.Store
	logger *slog.Logger
}

// NewEngine creates an Engine over store. A nil logger means slog.Default().
func NewEngine(store *favorites.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Sync reads the local set, decides against server, and when the server wins
// overwrites the store with the server set and timestamp.
//
// The returned result reports persistence trouble on either the read or the
// overwrite; the Outcome is valid regardless.
func (e *Engine) Sync(server Snapshot) (Outcome, result.Result) {
	const op = "reconcile.sync"

	local, readRes := e.store.Favorites()
	out := Decide(local, server.IDs, server.LastModified)

	res := result.OK(op)
	if !readRes.OK() {
		res = readRes
	}

	if out.Source == SourceServer {
		if _, writeRes := e.store.Replace(out.IDs, out.Timestamp); !writeRes.OK() {
			res = writeRes
		}
	}

	e.logger.Info("favorites reconciled",
		"source", string(out.Source),
		"count", len(out.IDs),
		"local_modified", stampAttr(local.LastModified),
		"server_modified", stampAttr(server.LastModified),
	)
	if out.LocalAhead() {
		e.logger.Info("local favorites are newer than the server copy",
			"local", out.IDs,
			"server", out.ServerIDs,
		)
	}

	res.Op = op
	return out, res
}

func stampAttr(t time.Time) string {
	if t.IsZero() {
		return "none"
	}
	return favorites.FormatTimestamp(t)
}
