package core

import (
	"fmt"
	"time"
)

// OutcomeKind discriminates the result of an interaction.
type OutcomeKind int

// OutcomeKind values
const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeNotFound
	OutcomeTimeout
	OutcomeStaleElement
	OutcomeNotInteractable
	OutcomeNavigationTimeout
	OutcomeFailed // driver or transport error, not an expected absence
)

// String returns the outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeStaleElement:
		return "stale_element"
	case OutcomeNotInteractable:
		return "not_interactable"
	case OutcomeNavigationTimeout:
		return "navigation_timeout"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the discriminated outcome of a query or action.
// Absence is a state, not an error: callers decide what it means.
type Result[T any] struct {
	Kind      OutcomeKind
	Value     T
	Target    Target
	Locator   Locator // winning candidate on success
	Predicate Predicate
	Elapsed   time.Duration
	Polls     int   // number of poll cycles run
	Matched   int   // most elements any single poll saw across all candidates
	Cause     error // underlying driver error, if any
}

// OK reports success. This is the explicit collapse to a boolean.
func (r Result[T]) OK() bool {
	return r.Kind == OutcomeSuccess
}

// ValueOr returns the value on success and def otherwise.
func (r Result[T]) ValueOr(def T) T {
	if r.Kind == OutcomeSuccess {
		return r.Value
	}
	return def
}

// Err converts a non-success result into an *ExecutionError carrying the
// target, predicate and elapsed time. Returns nil on success.
func (r Result[T]) Err() error {
	var base *ExecutionError
	switch r.Kind {
	case OutcomeSuccess:
		return nil
	case OutcomeNotFound:
		base = ErrElementNotFound
	case OutcomeTimeout:
		base = ErrWaitTimeout
	case OutcomeStaleElement:
		base = ErrStaleElement
	case OutcomeNotInteractable:
		base = ErrElementNotInteractable
	case OutcomeNavigationTimeout:
		base = ErrNavigationTimeout
	default:
		base = NewExecutionError(ErrCategoryConnection, "interaction_failed", "interaction failed")
	}

	msg := fmt.Sprintf("%s: %s (predicate=%s, elapsed=%s, polls=%d, matched=%d)",
		base.Message, r.Target.Describe(), r.Predicate, r.Elapsed.Round(time.Millisecond), r.Polls, r.Matched)
	if r.Kind == OutcomeTimeout && r.Matched == 0 {
		msg += ", no candidate ever matched"
	}
	return base.WithMessage(msg).WithCause(r.Cause).WithDetails(map[string]interface{}{
		"target":    r.Target.Describe(),
		"predicate": r.Predicate.String(),
		"elapsed":   r.Elapsed.String(),
		"matched":   r.Matched,
	})
}

// Absent reports whether the wait expired without any candidate matching.
func (r Result[T]) Absent() bool {
	return (r.Kind == OutcomeTimeout || r.Kind == OutcomeNotFound) && r.Matched == 0
}

// Map carries the diagnostics of r over to a result with a different value.
func Map[T, U any](r Result[T], value U) Result[U] {
	return Result[U]{
		Kind:      r.Kind,
		Value:     value,
		Target:    r.Target,
		Locator:   r.Locator,
		Predicate: r.Predicate,
		Elapsed:   r.Elapsed,
		Polls:     r.Polls,
		Matched:   r.Matched,
		Cause:     r.Cause,
	}
}
