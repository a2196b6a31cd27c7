package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidID is the sentinel behind every rejected game id.
var ErrInvalidID = errors.New("invalid game id")

// InvalidIDError reports a value that cannot be coerced to a game id.
type InvalidIDError struct {
	Value any
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid game id: %#v must be a positive whole number", e.Value)
}

// Unwrap lets errors.Is match ErrInvalidID.
func (e *InvalidIDError) Unwrap() error {
	return ErrInvalidID
}

// ParseID coerces v to the canonical integer game id.
//
// Accepted inputs: Go integer types, integral float64/float32, json.Number,
// and decimal strings (surrounding whitespace ignored). Everything else,
// including zero, negatives, fractional numbers and partial strings like
// "12abc", is rejected.
func ParseID(v any) (int, error) {
	id, err := coerceID(v)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, &InvalidIDError{Value: v}
	}
	return id, nil
}

func coerceID(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, &InvalidIDError{Value: v}
		}
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint:
		if n > math.MaxInt {
			return 0, &InvalidIDError{Value: v}
		}
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, &InvalidIDError{Value: v}
		}
		return int(n), nil
	case float32:
		return fromFloat(float64(n), v)
	case float64:
		return fromFloat(n, v)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return coerceID(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, &InvalidIDError{Value: v}
		}
		return fromFloat(f, v)
	case string:
		s := strings.TrimSpace(n)
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, &InvalidIDError{Value: v}
		}
		return i, nil
	}
	return 0, &InvalidIDError{Value: v}
}

func fromFloat(f float64, orig any) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, &InvalidIDError{Value: orig}
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, &InvalidIDError{Value: orig}
	}
	return int(f), nil
}

// Canonicalize removes duplicates from ids, keeping first occurrences in
// order. The result is never nil.
func Canonicalize(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
