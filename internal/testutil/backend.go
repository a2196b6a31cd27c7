package testutil

import (
	"errors"
	"io"
	"log/slog"
	"sync"
)

// ErrInjected is returned by FailingBackend for injected faults.
var ErrInjected = errors.New("injected storage fault")

// KV is the backend shape FailingBackend wraps. It matches storage.Backend
// without importing it, so storage's own tests can use this helper.
type KV interface {
	Load(key string) (string, bool, error)
	Save(key, value string) error
	Delete(key string) error
}

// FailingBackend wraps a backend and fails selected operations on demand,
// e.g. to simulate a full quota or a locked database.
type FailingBackend struct {
	Inner KV

	mu         sync.Mutex
	failLoad   bool
	failSave   bool
	failDelete bool
}

// NewFailingBackend wraps inner with all faults disabled.
func NewFailingBackend(inner KV) *FailingBackend {
	return &FailingBackend{Inner: inner}
}

// FailLoads toggles Load faults.
func (b *FailingBackend) FailLoads(on bool) { b.set(&b.failLoad, on) }

// FailSaves toggles Save faults.
func (b *FailingBackend) FailSaves(on bool) { b.set(&b.failSave, on) }

// FailDeletes toggles Delete faults.
func (b *FailingBackend) FailDeletes(on bool) { b.set(&b.failDelete, on) }

// Load fails with ErrInjected when enabled, otherwise delegates.
func (b *FailingBackend) Load(key string) (string, bool, error) {
	if b.get(&b.failLoad) {
		return "", false, ErrInjected
	}
	return b.Inner.Load(key)
}

// Save fails with ErrInjected when enabled, otherwise delegates.
func (b *FailingBackend) Save(key, value string) error {
	if b.get(&b.failSave) {
		return ErrInjected
	}
	return b.Inner.Save(key, value)
}

// Delete fails with ErrInjected when enabled, otherwise delegates.
func (b *FailingBackend) Delete(key string) error {
	if b.get(&b.failDelete) {
		return ErrInjected
	}
	return b.Inner.Delete(key)
}

func (b *FailingBackend) set(flag *bool, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	*flag = on
}

func (b *FailingBackend) get(flag *bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *flag
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
