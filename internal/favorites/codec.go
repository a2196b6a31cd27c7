package favorites

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout matches the millisecond ISO-8601 form browsers emit, e.g.
// 2024-01-02T03:04:05.000Z.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// record is the persisted shape:
//
//	{"favorites": [1, 2], "lastModified": "2024-01-02T03:04:05.000Z"}
type record struct {
	Favorites    []int   `json:"favorites"`
	LastModified *string `json:"lastModified"`
}

// rawRecord is record with ids left undecoded, so legacy string ids can be
// coerced one by one.
type rawRecord struct {
	Favorites    []json.RawMessage `json:"favorites"`
	LastModified *string           `json:"lastModified"`
}

// FormatTimestamp renders t in the persisted form (UTC, milliseconds).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp accepts any RFC 3339 timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Stamp truncates t to the precision that survives a round trip.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func encode(ids []int, lastModified time.Time) record {
	rec := record{Favorites: ids}
	if rec.Favorites == nil {
		rec.Favorites = []int{}
	}
	if !lastModified.IsZero() {
		ts := FormatTimestamp(lastModified)
		rec.LastModified = &ts
	}
	return rec
}

// decodeStats counts what decoding had to discard.
type decodeStats struct {
	dropped    int
	badStamp   bool
	legacyList bool
}

// decode parses either the current record or the legacy bare id list.
func decode(raw string) (FavoriteSet, decodeStats, error) {
	var stats decodeStats
	data := bytes.TrimSpace([]byte(raw))

	var elems []json.RawMessage
	var stamp *string
	if len(data) > 0 && data[0] == '[' {
		stats.legacyList = true
		if err := json.Unmarshal(data, &elems); err != nil {
			return FavoriteSet{}, stats, fmt.Errorf("decode legacy favorites: %w", err)
		}
	} else {
		var rec rawRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return FavoriteSet{}, stats, fmt.Errorf("decode favorites: %w", err)
		}
		elems = rec.Favorites
		stamp = rec.LastModified
	}

	ids := make([]int, 0, len(elems))
	for _, elem := range elems {
		id, ok := decodeID(elem)
		if !ok {
			stats.dropped++
			continue
		}
		ids = append(ids, id)
	}

	set := FavoriteSet{IDs: Canonicalize(ids)}
	if stamp != nil && *stamp != "" {
		t, err := ParseTimestamp(*stamp)
		if err != nil {
			stats.badStamp = true
		} else {
			set.LastModified = t
		}
	}
	return set, stats, nil
}

func decodeID(elem json.RawMessage) (int, bool) {
	dec := json.NewDecoder(bytes.NewReader(elem))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	id, err := ParseID(v)
	return id, err == nil
}
