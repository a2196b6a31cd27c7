package favorites

import (
	"log/slog"
	"slices"
	"time"

	"github.com/daveberzack/5-minute-react/internal/clock"
	"github.com/daveberzack/5-minute-react/internal/result"
	"github.com/daveberzack/5-minute-react/internal/storage"
)

// Key is the storage key holding the favorites record.
const Key = "glg_favorites"

// Store owns the locally cached favorites and their last-modified timestamp.
//
// Reads never fail: an absent, unreadable or corrupt record yields an empty,
// never-written set. Mutations stamp LastModified with the clock's current
// time at millisecond precision.
type Store struct {
	port   *storage.Port
	clock  clock.Clock
	logger *slog.Logger
}

// NewStore creates a Store over p. A nil clock means the system clock.
func NewStore(p *storage.Port, c clock.Clock) *Store {
	return &Store{
		port:   p,
		clock:  clock.OrSystem(c),
		logger: p.Logger(),
	}
}

// Favorites reads the current set.
//
// Both the bare-list legacy encoding and the {favorites, lastModified} record
// are accepted. Ids that do not coerce to integers are dropped.
func (s *Store) Favorites() (FavoriteSet, result.Result) {
	const op = "favorites.get"

	raw, ok, res := s.port.Get(Key)
	if !ok {
		res.Op = op
		return FavoriteSet{IDs: []int{}}, res
	}

	set, stats, err := decode(raw)
	if err != nil {
		s.logger.Warn("error reading favorites, using empty set", "key", Key, "error", err)
		return FavoriteSet{IDs: []int{}}, result.Fail(result.KindCorrupt, op, Key, err)
	}
	if stats.dropped > 0 {
		s.logger.Warn("dropped non-numeric favorite ids", "key", Key, "dropped", stats.dropped)
	}
	if stats.badStamp {
		s.logger.Warn("favorites timestamp unreadable, treating as never modified", "key", Key)
	}
	return set, result.OK(op)
}

// SetFavorites replaces the set with ids, stamps LastModified with now and
// persists. Returns the new timestamp.
//
// When persistence fails the new set is still served for this session and the
// result is KindDegraded.
func (s *Store) SetFavorites(ids []int) (time.Time, result.Result) {
	return s.write("favorites.set", ids, Stamp(s.clock.Now()))
}

// Replace adopts a set wholesale together with its timestamp, as when a newer
// server snapshot wins reconciliation. A zero lastModified is stamped with now.
func (s *Store) Replace(ids []int, lastModified time.Time) (time.Time, result.Result) {
	if lastModified.IsZero() {
		lastModified = s.clock.Now()
	}
	return s.write("favorites.replace", ids, Stamp(lastModified))
}

// Add marks id as a favorite.
//
// Adding an existing favorite is a no-op that returns the current timestamp.
// An id that cannot be coerced is logged and rejected as a no-op with a
// KindInvalid result.
func (s *Store) Add(id any) (time.Time, result.Result) {
	const op = "favorites.add"

	gameID, err := ParseID(id)
	current, _ := s.Favorites()
	if err != nil {
		s.logger.Error("invalid game id provided to add favorite", "id", id)
		return current.LastModified, result.Fail(result.KindInvalid, op, Key, err)
	}
	if current.Has(gameID) {
		return current.LastModified, result.Noop(op)
	}

	ids := append(slices.Clone(current.IDs), gameID)
	ts, res := s.write(op, ids, Stamp(s.clock.Now()))
	return ts, res
}

// Remove unmarks id.
//
// Removing an absent id is a no-op that returns the current timestamp. An id
// that cannot be coerced is logged and rejected as a no-op.
func (s *Store) Remove(id any) (time.Time, result.Result) {
	const op = "favorites.remove"

	gameID, err := ParseID(id)
	current, _ := s.Favorites()
	if err != nil {
		s.logger.Error("invalid game id provided to remove favorite", "id", id)
		return current.LastModified, result.Fail(result.KindInvalid, op, Key, err)
	}
	if !current.Has(gameID) {
		return current.LastModified, result.Noop(op)
	}

	ids := slices.DeleteFunc(slices.Clone(current.IDs), func(v int) bool { return v == gameID })
	return s.write(op, ids, Stamp(s.clock.Now()))
}

// IsFavorite reports whether id is a favorite.
//
// Unlike the mutators this signals bad input: a non-coercible id returns an
// *InvalidIDError, since a silently wrong answer would drive conditional UI.
func (s *Store) IsFavorite(id any) (bool, error) {
	gameID, err := ParseID(id)
	if err != nil {
		return false, err
	}
	set, _ := s.Favorites()
	return set.Has(gameID), nil
}

// Clear removes the record entirely; the set reads as never written.
func (s *Store) Clear() result.Result {
	res := s.port.Remove(Key)
	if res.Degraded() {
		s.logger.Error("error clearing favorites", "key", Key, "error", res.Err)
	}
	res.Op = "favorites.clear"
	return res
}

func (s *Store) write(op string, ids []int, stamp time.Time) (time.Time, result.Result) {
	ids = Canonicalize(ids)
	res := s.port.SetJSON(Key, encode(ids, stamp))
	if res.Degraded() {
		s.logger.Error("error saving favorites", "key", Key, "op", op, "error", res.Err)
		res.Op = op
		return stamp, res
	}
	s.logger.Debug("favorites saved", "op", op, "count", len(ids), "last_modified", FormatTimestamp(stamp))
	return stamp, result.OK(op)
}
