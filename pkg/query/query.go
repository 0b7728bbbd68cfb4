// Package query resolves targets against a live page with bounded polling.
//
// Every poll cycle reissues the DOM query for each candidate of the target in
// order; handles are never cached across polls, so a node re-rendered by the
// page is picked up on the next cycle. Waits never exceed the policy timeout
// by more than one poll interval plus a driver round trip.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/logger"
)

// Handle is an element bound to the poll that produced it.
type Handle struct {
	Element core.Element
	Locator core.Locator
	Index   int // position among the matches of Locator
}

// Stats describes a finished polling loop.
type Stats struct {
	Polls   int
	Elapsed time.Duration
}

// Probe is one poll attempt. done ends the loop successfully; an error ends
// it as a failure.
type Probe func(ctx context.Context) (done bool, err error)

// Poll runs probe until it is done, it fails, or policy expires. On expiry it
// returns an error wrapping core.ErrWaitTimeout; a cancelled context is
// reported the same way with the context error as cause. A zero policy means
// core.DefaultWaitPolicy.
func Poll(ctx context.Context, policy core.WaitPolicy, probe Probe) (Stats, error) {
	policy = policy.Or(core.DefaultWaitPolicy)
	if err := policy.Validate(); err != nil {
		return Stats{}, err
	}

	start := time.Now()
	deadline := policy.Deadline(start)
	var st Stats

	for {
		st.Polls++
		done, err := probe(ctx)
		st.Elapsed = time.Since(start)
		if err != nil {
			if ctx.Err() != nil {
				return st, core.ErrWaitTimeout.WithCause(ctx.Err())
			}
			return st, err
		}
		if done {
			return st, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return st, core.ErrWaitTimeout
		}
		if err := sleep(ctx, min(policy.PollInterval, remaining)); err != nil {
			st.Elapsed = time.Since(start)
			return st, core.ErrWaitTimeout.WithCause(err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Find waits until some candidate of target yields an element satisfying
// pred. On expiry the result is OutcomeTimeout; Result.Matched tells whether
// anything was ever present. Driver errors other than stale handles end the
// query with OutcomeFailed.
func Find(ctx context.Context, drv core.Driver, target core.Target, pred core.Predicate, policy core.WaitPolicy) core.Result[Handle] {
	res := core.Result[Handle]{Target: target, Predicate: pred}

	var found *Handle
	st, err := Poll(ctx, policy, func(ctx context.Context) (bool, error) {
		h, matched, err := Once(ctx, drv, target, pred)
		if matched > res.Matched {
			res.Matched = matched
		}
		if err != nil {
			return false, err
		}
		found = h
		return h != nil, nil
	})
	return finish(res, st, err, found)
}

func finish(res core.Result[Handle], st Stats, err error, found *Handle) core.Result[Handle] {
	res.Polls = st.Polls
	res.Elapsed = st.Elapsed
	switch {
	case err == nil:
		res.Kind = core.OutcomeSuccess
		res.Value = *found
		res.Locator = found.Locator
	case errors.Is(err, core.ErrWaitTimeout):
		res.Kind = core.OutcomeTimeout
		res.Cause = errors.Unwrap(err)
		logger.Debug("wait expired: %s predicate=%s polls=%d matched=%d elapsed=%s",
			res.Target.Describe(), res.Predicate, res.Polls, res.Matched, res.Elapsed)
	default:
		res.Kind = core.OutcomeFailed
		res.Cause = err
		logger.Warn("query failed: %s: %v", res.Target.Describe(), err)
	}
	return res
}

// Once runs a single poll cycle: it tries every candidate in order and
// returns the first element satisfying pred (nil if none), along with the
// number of elements seen. For a first-only target the cycle stops at the
// first candidate with matches and only its first element is considered.
func Once(ctx context.Context, drv core.Driver, target core.Target, pred core.Predicate) (*Handle, int, error) {
	matched := 0
	for _, loc := range target.Candidates {
		els, err := drv.FindElements(ctx, loc)
		if err != nil {
			if errors.Is(err, core.ErrStaleElement) {
				continue
			}
			return nil, matched, err
		}
		matched += len(els)
		if target.First && len(els) > 1 {
			els = els[:1]
		}

		for i, el := range els {
			ok, err := Satisfies(ctx, el, pred)
			if err != nil {
				if errors.Is(err, core.ErrStaleElement) {
					continue
				}
				return nil, matched, err
			}
			if ok {
				return &Handle{Element: el, Locator: loc, Index: i}, matched, nil
			}
		}
		if target.First && len(els) > 0 {
			return nil, matched, nil
		}
	}
	return nil, matched, nil
}

// Satisfies evaluates pred against el.
func Satisfies(ctx context.Context, el core.Element, pred core.Predicate) (bool, error) {
	switch pred {
	case core.PredicatePresent:
		return true, nil
	case core.PredicateVisible:
		return el.Displayed(ctx)
	case core.PredicateClickable:
		shown, err := el.Displayed(ctx)
		if err != nil || !shown {
			return false, err
		}
		return el.Enabled(ctx)
	default:
		return false, core.ErrInvalidPolicy.WithMessage("unknown predicate " + pred.String())
	}
}

// FindAll waits until the first candidate of target that yields at least one
// element, and returns that candidate's ordered matches.
func FindAll(ctx context.Context, drv core.Driver, target core.Target, policy core.WaitPolicy) core.Result[[]core.Element] {
	res := core.Result[[]core.Element]{Target: target, Predicate: core.PredicatePresent}

	var (
		found []core.Element
		loc   core.Locator
	)
	st, err := Poll(ctx, policy, func(ctx context.Context) (bool, error) {
		for _, c := range target.Candidates {
			els, err := drv.FindElements(ctx, c)
			if err != nil {
				if errors.Is(err, core.ErrStaleElement) {
					continue
				}
				return false, err
			}
			if len(els) > res.Matched {
				res.Matched = len(els)
			}
			if len(els) > 0 {
				found, loc = els, c
				return true, nil
			}
		}
		return false, nil
	})

	h := finish(core.Map(res, Handle{}), st, err, &Handle{Locator: loc})
	out := core.Map(h, found)
	if !out.OK() {
		out.Value = nil
	}
	return out
}
