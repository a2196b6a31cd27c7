package storage

import (
	"encoding/json"
	"fmt"

	"github.com/daveberzack/5-minute-react/internal/result"
)

// GetJSON decodes the JSON value stored under key into out.
//
// Returns found=false when the key is absent, unreadable, or does not decode.
// A decode failure is logged and reported as KindCorrupt; the stored value is
// left in place.
func (p *Port) GetJSON(key string, out any) (bool, result.Result) {
	raw, ok, res := p.Get(key)
	if !ok {
		return false, res
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		p.logger.Warn("stored value is not valid JSON, treating as absent", "key", p.key(key), "error", err)
		return false, result.Fail(result.KindCorrupt, "storage.get_json", key, err)
	}
	return true, res
}

// SetJSON encodes v as JSON and stores it under key.
func (p *Port) SetJSON(key string, v any) result.Result {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("value cannot be encoded as JSON", "key", p.key(key), "error", err)
		return result.Fail(result.KindInvalid, "storage.set_json", key, fmt.Errorf("encode %s: %w", key, err))
	}
	return p.Set(key, string(data))
}
