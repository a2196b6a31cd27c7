// Package prefs stores the player's presentation preferences on the device:
// the order of the favorites grid, custom game links and the default tab.
// None of it is reconciled with the server.
package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/daveberzack/5-minute-react/internal/ids"
	"github.com/daveberzack/5-minute-react/internal/result"
	"github.com/daveberzack/5-minute-react/internal/storage"
)

// Storage keys.
const (
	KeyFavoriteOrder = "favoriteOrder"
	KeyCustomLinks   = "customLinks"
	KeyDefaultTab    = "defaultTab"
)

// DefaultTab is shown when no tab has been chosen.
const DefaultTab = "all"

// ErrInvalidOrderKey is returned for a malformed favorites-grid key.
var ErrInvalidOrderKey = errors.New("invalid order key")

// OrderKind distinguishes catalog games from custom links in the grid order.
type OrderKind string

const (
	OrderGame   OrderKind = "game"
	OrderCustom OrderKind = "custom"
)

// OrderKey is one entry of the favorites grid order, rendered as
// "game-<id>" or "custom-<id>".
type OrderKey struct {
	Kind OrderKind
	ID   string
}

// String renders the composite key.
func (k OrderKey) String() string {
	return string(k.Kind) + "-" + k.ID
}

// ParseOrderKey parses "game-<id>" or "custom-<id>".
func ParseOrderKey(s string) (OrderKey, error) {
	kind, id, ok := strings.Cut(s, "-")
	if !ok || id == "" {
		return OrderKey{}, fmt.Errorf("%w: %q", ErrInvalidOrderKey, s)
	}
	switch OrderKind(kind) {
	case OrderGame:
		if _, err := strconv.Atoi(id); err != nil {
			return OrderKey{}, fmt.Errorf("%w: %q: game id must be numeric", ErrInvalidOrderKey, s)
		}
	case OrderCustom:
	default:
		return OrderKey{}, fmt.Errorf("%w: %q: unknown kind %q", ErrInvalidOrderKey, s, kind)
	}
	return OrderKey{Kind: OrderKind(kind), ID: id}, nil
}

// LinkID is a custom link id. Older clients used numeric ids; both forms
// decode to text.
type LinkID string

// UnmarshalJSON accepts a string or a number.
func (id *LinkID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = LinkID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("link id must be a string or number: %w", err)
	}
	*id = LinkID(n.String())
	return nil
}

// CustomLink is a player-defined tile pointing at any URL.
type CustomLink struct {
	ID              LinkID `json:"id"`
	Name            string `json:"name" validate:"required"`
	URL             string `json:"url" validate:"required,url"`
	Emoji           string `json:"emoji,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty" validate:"omitempty,hexcolor"`
	IsCustom        bool   `json:"isCustom"`
}

var validate = validator.New()

// Store reads and writes preferences through the Storage Port.
type Store struct {
	port   *storage.Port
	ids    ids.Generator
	logger *slog.Logger
}

// NewStore creates a Store. A nil generator means UUIDv7 link ids.
func NewStore(p *storage.Port, gen ids.Generator) *Store {
	return &Store{port: p, ids: ids.OrDefault(gen), logger: p.Logger()}
}

// FavoriteOrder returns the stored grid order, skipping malformed entries.
func (s *Store) FavoriteOrder() []OrderKey {
	var raw []string
	if found, _ := s.port.GetJSON(KeyFavoriteOrder, &raw); !found {
		return []OrderKey{}
	}
	out := make([]OrderKey, 0, len(raw))
	for _, r := range raw {
		k, err := ParseOrderKey(r)
		if err != nil {
			s.logger.Warn("dropping malformed favorite order entry", "entry", r)
			continue
		}
		out = append(out, k)
	}
	return out
}

// SetFavoriteOrder replaces the grid order. Duplicate keys keep their first
// position.
func (s *Store) SetFavoriteOrder(order []OrderKey) result.Result {
	seen := make(map[OrderKey]struct{}, len(order))
	raw := make([]string, 0, len(order))
	for _, k := range order {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		raw = append(raw, k.String())
	}
	res := s.port.SetJSON(KeyFavoriteOrder, raw)
	res.Op = "prefs.set_order"
	return res
}

// CustomLinks returns the stored custom links.
func (s *Store) CustomLinks() []CustomLink {
	var links []CustomLink
	if found, _ := s.port.GetJSON(KeyCustomLinks, &links); !found || links == nil {
		return []CustomLink{}
	}
	return links
}

// AddCustomLink validates link, assigns a fresh id and appends it. Name and
// URL are trimmed.
func (s *Store) AddCustomLink(link CustomLink) (CustomLink, result.Result) {
	const op = "prefs.add_link"

	link.Name = strings.TrimSpace(link.Name)
	link.URL = strings.TrimSpace(link.URL)
	link.IsCustom = true
	if err := validate.Struct(link); err != nil {
		return CustomLink{}, result.Fail(result.KindInvalid, op, KeyCustomLinks, err)
	}
	link.ID = LinkID(s.ids.Generate())

	links := append(s.CustomLinks(), link)
	res := s.port.SetJSON(KeyCustomLinks, links)
	if res.Degraded() {
		s.logger.Error("error saving custom links", "error", res.Err)
	}
	res.Op = op
	return link, res
}

// RemoveCustomLink deletes the link with id. A missing id is a no-op.
func (s *Store) RemoveCustomLink(id string) result.Result {
	const op = "prefs.remove_link"

	links := s.CustomLinks()
	kept := slices.DeleteFunc(slices.Clone(links), func(l CustomLink) bool { return string(l.ID) == id })
	if len(kept) == len(links) {
		return result.Noop(op)
	}
	res := s.port.SetJSON(KeyCustomLinks, kept)
	res.Op = op
	return res
}

// DefaultTab returns the stored tab, or DefaultTab.
func (s *Store) DefaultTab() string {
	tab, ok, _ := s.port.Get(KeyDefaultTab)
	if !ok || tab == "" {
		return DefaultTab
	}
	return tab
}

// SetDefaultTab stores tab. An empty tab restores the default.
func (s *Store) SetDefaultTab(tab string) result.Result {
	tab = strings.TrimSpace(tab)
	var res result.Result
	if tab == "" {
		res = s.port.Remove(KeyDefaultTab)
	} else {
		res = s.port.Set(KeyDefaultTab, tab)
	}
	res.Op = "prefs.set_tab"
	return res
}
