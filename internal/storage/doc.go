// Package storage implements the Storage Port: a small, synchronous key/value
// persistence abstraction that every piece of local client state is built on.
//
// The port is split in two layers:
//   - Backend: the raw persistence medium (memory, SQLite, Redis). Backends
//     may fail and report errors.
//   - Port: wraps a Backend and never propagates a fault. Missing keys read
//     as absent, backend errors are logged and reported as a typed
//     result.Result so callers can degrade to defaults.
//
// # Session Overlay
//
// When a write fails (quota, locked database, unreachable server) the Port
// keeps the value in a per-process overlay, so later reads in the same session
// observe the write. The overlay entry is dropped as soon as a write or remove
// for that key succeeds. The change may therefore be lost on reload, but the
// UI stays consistent within the session.
//
// # Concurrency
//
// Callers are expected to touch the Port from a single goroutine. The overlay
// is still mutex-guarded because fire-and-forget remote callbacks may read
// through it. Concurrent processes sharing one backend are last-writer-wins.
package storage
