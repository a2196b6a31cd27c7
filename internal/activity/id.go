package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// GameID normalizes a game identifier to the string form kept in the played
// and scored sets. Strings are trimmed and NFC-normalized so visually equal ids
// compare equal; integers and integral floats render in decimal. Anything else,
// including the empty string, is rejected.
func GameID(v any) (string, bool) {
	var s string
	switch x := v.(type) {
	case string:
		s = norm.NFC.String(strings.TrimSpace(x))
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		f, err := x.Float64()
		if err != nil {
			return "", false
		}
		return GameID(f)
	case int:
		s = strconv.Itoa(x)
	case int32:
		s = strconv.FormatInt(int64(x), 10)
	case int64:
		s = strconv.FormatInt(x, 10)
	case uint:
		s = strconv.FormatUint(uint64(x), 10)
	case uint32:
		s = strconv.FormatUint(uint64(x), 10)
	case uint64:
		s = strconv.FormatUint(x, 10)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return "", false
		}
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return "", false
	}
	return s, s != ""
}

// decodeIDs reads a stored JSON array that may mix numbers and strings.
// Unusable elements are dropped and duplicates collapse to the first.
func decodeIDs(raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, elem := range raw {
		dec := json.NewDecoder(bytes.NewReader(elem))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			continue
		}
		id, ok := GameID(v)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type invalidGameIDError struct {
	value any
}

func errInvalidGameID(v any) error {
	return &invalidGameIDError{value: v}
}

func (e *invalidGameIDError) Error() string {
	return fmt.Sprintf("invalid game id %v (%T)", e.value, e.value)
}
