package harness

import (
	"fmt"
	"slices"
)

// AssertionError describes one failed expectation.
type AssertionError struct {
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("expected %s %s, got %s", e.Field, e.Expected, e.Actual)
}

// check evaluates exp after a step and returns one message per mismatch.
func (h *Harness) check(exp *Expect, out outcome) []string {
	var errs []error

	if exp.Kind != "" && exp.Kind != kindOf(out.res) {
		errs = append(errs, mismatch("kind", exp.Kind, kindOf(out.res)))
	}
	if exp.Favorites != nil {
		if got := nonNil(h.portal.Favorites()); !slices.Equal(*exp.Favorites, got) {
			errs = append(errs, mismatch("favorites", *exp.Favorites, got))
		}
	}
	if exp.Source != "" && exp.Source != out.source {
		errs = append(errs, mismatch("source", exp.Source, out.source))
	}
	if exp.Visit != nil {
		_, got := h.portal.Detector().CheckForRecentGameVisit()
		if got != *exp.Visit {
			errs = append(errs, mismatch("visit", *exp.Visit, got))
		}
	}
	if exp.Played != nil {
		if got := h.portal.Tracker().PlayedToday(); !slices.Equal(*exp.Played, got) {
			errs = append(errs, mismatch("played", *exp.Played, got))
		}
	}
	if exp.Value != nil {
		switch {
		case out.value == nil:
			errs = append(errs, mismatch("value", *exp.Value, "nothing"))
		case *out.value != *exp.Value:
			errs = append(errs, mismatch("value", *exp.Value, *out.value))
		}
	}
	if exp.State != "" && exp.State != out.state {
		errs = append(errs, mismatch("state", exp.State, out.state))
	}
	if exp.Authenticated != nil {
		got := h.portal.Session().Authenticated(h.clock.Now())
		if got != *exp.Authenticated {
			errs = append(errs, mismatch("authenticated", *exp.Authenticated, got))
		}
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

func mismatch(field string, expected, actual any) *AssertionError {
	return &AssertionError{
		Field:    field,
		Expected: fmt.Sprintf("%v", expected),
		Actual:   fmt.Sprintf("%v", actual),
	}
}
