// Package result gives every swallow-and-log path in the reconciliation layer
// an explicit, typed return value.
//
// Local persistence and best-effort remote calls never fail loudly: a corrupt
// record reads as absent, a failed write keeps the in-memory value, a failed
// remote mutation keeps the local change. Callers that care can still tell
// "succeeded" from "degraded" by inspecting the Result.
package result

import (
	"errors"
	"fmt"
)

// Kind categorizes an outcome.
type Kind string

const (
	// KindOK indicates the operation did what was asked.
	KindOK Kind = "ok"

	// KindNoop indicates the operation was idempotent and changed nothing.
	KindNoop Kind = "noop"

	// KindMissing indicates the requested key or record is absent.
	KindMissing Kind = "missing"

	// KindCorrupt indicates a stored value could not be decoded and was
	// treated as absent.
	KindCorrupt Kind = "corrupt"

	// KindDegraded indicates a persistence fault. The value is kept in memory
	// for the current session but may not survive a reload.
	KindDegraded Kind = "degraded"

	// KindInvalid indicates rejected input (for example a non-numeric game id).
	KindInvalid Kind = "invalid"

	// KindRemoteFailed indicates a best-effort remote call failed. Local state
	// was kept.
	KindRemoteFailed Kind = "remote_failed"
)

// Result is the outcome of a local or best-effort operation.
type Result struct {
	// Kind identifies the outcome category.
	Kind Kind

	// Op names the operation, e.g. "favorites.add".
	Op string

	// Key is the storage key involved, if any.
	Key string

	// Err is the underlying cause for non-OK kinds.
	Err error
}

// OK builds a KindOK result.
func OK(op string) Result {
	return Result{Kind: KindOK, Op: op}
}

// Noop builds a KindNoop result.
func Noop(op string) Result {
	return Result{Kind: KindNoop, Op: op}
}

// Missing builds a KindMissing result.
func Missing(op, key string) Result {
	return Result{Kind: KindMissing, Op: op, Key: key}
}

// Fail builds a result of the given kind wrapping err.
func Fail(kind Kind, op, key string, err error) Result {
	return Result{Kind: kind, Op: op, Key: key, Err: err}
}

// OK reports whether the operation completed without degradation.
// Noop and missing outcomes count as OK.
func (r Result) OK() bool {
	switch r.Kind {
	case KindOK, KindNoop, KindMissing, "":
		return true
	}
	return false
}

// Degraded reports whether the operation fell back to a default or kept
// state only in memory.
func (r Result) Degraded() bool {
	return !r.OK()
}

// Changed reports whether the operation mutated state.
func (r Result) Changed() bool {
	return r.Kind == KindOK
}

// String implements fmt.Stringer.
func (r Result) String() string {
	switch {
	case r.Err != nil && r.Key != "":
		return fmt.Sprintf("%s: %s (key=%s): %v", r.Op, r.Kind, r.Key, r.Err)
	case r.Err != nil:
		return fmt.Sprintf("%s: %s: %v", r.Op, r.Kind, r.Err)
	case r.Key != "":
		return fmt.Sprintf("%s: %s (key=%s)", r.Op, r.Kind, r.Key)
	}
	return fmt.Sprintf("%s: %s", r.Op, r.Kind)
}

// Worst returns the most severe of the given results, preferring the first
// among equals. An empty argument list yields a zero (OK) result.
func Worst(results ...Result) Result {
	var worst Result
	for _, r := range results {
		if severity(r.Kind) > severity(worst.Kind) {
			worst = r
		}
	}
	return worst
}

// Is reports whether err's chain contains target, for results carrying an Err.
func (r Result) Is(target error) bool {
	return r.Err != nil && errors.Is(r.Err, target)
}

func severity(k Kind) int {
	switch k {
	case KindInvalid:
		return 5
	case KindRemoteFailed:
		return 4
	case KindDegraded:
		return 3
	case KindCorrupt:
		return 2
	case KindOK, KindNoop, KindMissing:
		return 1
	}
	return 0
}
