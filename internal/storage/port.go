package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/daveberzack/5-minute-react/internal/result"
)

// ErrBackend wraps every fault reported by a Backend.
var ErrBackend = errors.New("storage backend fault")

// Backend is a raw key/value persistence medium.
//
// Load must return ok=false with a nil error for a missing key. Delete of a
// missing key is not an error.
type Backend interface {
	Load(key string) (value string, ok bool, err error)
	Save(key, value string) error
	Delete(key string) error
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	Keys() ([]string, error)
}

type overlayEntry struct {
	value   string
	deleted bool
}

// Port is the fault-tolerant face of a Backend.
type Port struct {
	backend   Backend
	namespace string
	logger    *slog.Logger

	mu      sync.Mutex
	overlay map[string]overlayEntry
}

// Option configures a Port.
type Option func(*Port)

// WithNamespace prefixes every key with "<ns>:" to avoid collisions with other
// applications sharing the same backend.
func WithNamespace(ns string) Option {
	return func(p *Port) {
		p.namespace = ns
	}
}

// WithLogger sets the logger used for swallowed faults.
func WithLogger(l *slog.Logger) Option {
	return func(p *Port) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Port over the given backend.
func New(b Backend, opts ...Option) *Port {
	p := &Port{
		backend: b,
		logger:  slog.Default(),
		overlay: make(map[string]overlayEntry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns the value stored under key. A missing key yields ok=false and a
// KindMissing result; a backend fault yields ok=false and KindDegraded.
func (p *Port) Get(key string) (string, bool, result.Result) {
	const op = "storage.get"
	full := p.key(key)

	p.mu.Lock()
	entry, shadowed := p.overlay[full]
	p.mu.Unlock()
	if shadowed {
		if entry.deleted {
			return "", false, result.Missing(op, key)
		}
		return entry.value, true, result.OK(op)
	}

	value, ok, err := p.backend.Load(full)
	if err != nil {
		p.logger.Warn("storage read failed", "key", full, "error", err)
		return "", false, result.Fail(result.KindDegraded, op, key, fmt.Errorf("%w: %w", ErrBackend, err))
	}
	if !ok {
		return "", false, result.Missing(op, key)
	}
	return value, true, result.OK(op)
}

// Set stores value under key. On a backend fault the value is kept in the
// session overlay and the result is KindDegraded.
func (p *Port) Set(key, value string) result.Result {
	const op = "storage.set"
	full := p.key(key)

	if err := p.backend.Save(full, value); err != nil {
		p.mu.Lock()
		p.overlay[full] = overlayEntry{value: value}
		p.mu.Unlock()
		p.logger.Warn("storage write failed, keeping value for this session", "key", full, "error", err)
		return result.Fail(result.KindDegraded, op, key, fmt.Errorf("%w: %w", ErrBackend, err))
	}

	p.mu.Lock()
	delete(p.overlay, full)
	p.mu.Unlock()
	return result.OK(op)
}

// Remove deletes key. Removing a missing key succeeds.
func (p *Port) Remove(key string) result.Result {
	const op = "storage.remove"
	full := p.key(key)

	if err := p.backend.Delete(full); err != nil {
		p.mu.Lock()
		p.overlay[full] = overlayEntry{deleted: true}
		p.mu.Unlock()
		p.logger.Warn("storage remove failed, hiding key for this session", "key", full, "error", err)
		return result.Fail(result.KindDegraded, op, key, fmt.Errorf("%w: %w", ErrBackend, err))
	}

	p.mu.Lock()
	delete(p.overlay, full)
	p.mu.Unlock()
	return result.OK(op)
}

// Logger returns the logger faults are reported to.
func (p *Port) Logger() *slog.Logger {
	return p.logger
}

// Pending reports how many keys are currently held only in the session
// overlay.
func (p *Port) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.overlay)
}

// Keys lists the keys in this port's namespace, with the namespace prefix
// stripped. Backends that cannot enumerate yield KindMissing.
func (p *Port) Keys() ([]string, result.Result) {
	const op = "storage.keys"
	lister, ok := p.backend.(Lister)
	if !ok {
		return nil, result.Missing(op, "")
	}
	all, err := lister.Keys()
	if err != nil {
		p.logger.Warn("storage listing failed", "error", err)
		return nil, result.Fail(result.KindDegraded, op, "", fmt.Errorf("%w: %w", ErrBackend, err))
	}
	prefix := p.key("")
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, strings.TrimPrefix(k, prefix))
		}
	}
	return keys, result.OK(op)
}

func (p *Port) key(key string) string {
	if p.namespace == "" {
		return key
	}
	return p.namespace + ":" + key
}
