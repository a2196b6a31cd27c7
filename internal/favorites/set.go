package favorites

import (
	"slices"
	"time"
)

// FavoriteSet is the locally cached set of favorite game ids.
//
// IDs holds no duplicates, in the order they were added. LastModified is the
// zero time only when the set has never been written.
type FavoriteSet struct {
	IDs          []int
	LastModified time.Time
}

// Modified reports whether the set has ever been written.
func (s FavoriteSet) Modified() bool {
	return !s.LastModified.IsZero()
}

// Has reports membership.
func (s FavoriteSet) Has(id int) bool {
	return slices.Contains(s.IDs, id)
}

// Len returns the number of favorites.
func (s FavoriteSet) Len() int {
	return len(s.IDs)
}

// SameIDs reports whether s and ids contain the same members, ignoring order
// and duplicates.
func (s FavoriteSet) SameIDs(ids []int) bool {
	a := slices.Clone(Canonicalize(s.IDs))
	b := slices.Clone(Canonicalize(ids))
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
