package action

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/logger"
	"github.com/bookqa/bookqa/pkg/query"
)

const readyStateScript = "return document.readyState"

// Open navigates to url and waits until document.readyState is "complete".
// Relative paths are resolved against the session base URL. The result value
// is the URL that was requested.
func (s *Session) Open(ctx context.Context, url string, policy core.WaitPolicy) core.Result[string] {
	target := core.Target{Name: "page " + url}
	release, err := s.acquire()
	if err != nil {
		return failed[string](target, err)
	}
	defer release()

	url = s.absURL(url)
	start := time.Now()
	logger.Info("open %s", url)
	if err := s.drv.Navigate(ctx, url); err != nil {
		r := failed[string](target, err)
		r.Elapsed = time.Since(start)
		return r
	}

	st, err := query.Poll(ctx, s.resolve(policy), func(ctx context.Context) (bool, error) {
		state, err := s.drv.ExecuteScript(ctx, readyStateScript)
		if err != nil {
			return false, err
		}
		return state == "complete", nil
	})

	res := core.Result[string]{Target: target, Value: url, Polls: st.Polls, Elapsed: time.Since(start)}
	switch {
	case err == nil:
		res.Kind = core.OutcomeSuccess
	case errors.Is(err, core.ErrWaitTimeout):
		res.Kind = core.OutcomeNavigationTimeout
		res.Cause = errors.Unwrap(err)
		logger.Warn("page %s never reached ready state within %s", url, res.Elapsed)
	default:
		res.Kind = core.OutcomeFailed
		res.Cause = err
	}
	return res
}

// ClickMode tells which path a successful click took.
type ClickMode int

// ClickMode values
const (
	ClickNone ClickMode = iota
	Clicked             // native user click
	JsClicked           // programmatic click after the clickable wait was exhausted
)

// String returns the mode name.
func (m ClickMode) String() string {
	switch m {
	case Clicked:
		return "clicked"
	case JsClicked:
		return "js_clicked"
	default:
		return "none"
	}
}

// ClickOptions tunes Click.
type ClickOptions struct {
	Policy core.WaitPolicy
	// NativeOnly disables the programmatic fallback.
	NativeOnly bool
}

// Click resolves target as clickable and clicks it natively. A native click
// that is intercepted (an overlay on top) is retried on the next poll until
// the clickable window closes. After that the element is resolved as merely
// present for one more poll interval and clicked programmatically, which
// bypasses the overlay. One stale handle is re-resolved silently; a second
// one ends the click with OutcomeStaleElement.
func (s *Session) Click(ctx context.Context, target core.Target, opts ClickOptions) core.Result[ClickMode] {
	release, err := s.acquire()
	if err != nil {
		return failed[ClickMode](target, err)
	}
	defer release()
	return s.click(ctx, target, s.resolve(opts.Policy), opts.NativeOnly)
}

func (s *Session) click(ctx context.Context, target core.Target, policy core.WaitPolicy, nativeOnly bool) core.Result[ClickMode] {
	start := time.Now()
	res := core.Result[ClickMode]{Target: target, Predicate: core.PredicateClickable}
	stale := 0

	attempt := func(pred core.Predicate, do func(ctx context.Context, el core.Element) error) query.Probe {
		return func(ctx context.Context) (bool, error) {
			h, matched, err := query.Once(ctx, s.drv, target, pred)
			if matched > res.Matched {
				res.Matched = matched
			}
			if err != nil || h == nil {
				return false, err
			}
			err = do(ctx, h.Element)
			switch {
			case err == nil:
				res.Locator = h.Locator
				return true, nil
			case errors.Is(err, core.ErrStaleElement):
				stale++
				if stale > 1 {
					return false, err
				}
				logger.Debug("stale handle on %s, re-resolving", target.Describe())
				return false, nil
			case errors.Is(err, core.ErrElementNotInteractable):
				logger.Debug("click on %s intercepted: %v", target.Describe(), err)
				return false, nil
			default:
				return false, err
			}
		}
	}

	done := func(kind core.OutcomeKind, mode ClickMode, cause error) core.Result[ClickMode] {
		res.Kind, res.Value, res.Cause = kind, mode, cause
		res.Elapsed = time.Since(start)
		if kind != core.OutcomeSuccess {
			logger.Warn("click %s: %s after %s", target.Describe(), kind, res.Elapsed)
		}
		return res
	}

	// WaitingClickable; one native attempt may not outlast a poll interval
	st, err := query.Poll(ctx, policy, attempt(core.PredicateClickable, nativeClick(policy.PollInterval)))
	res.Polls += st.Polls
	if err == nil {
		return done(core.OutcomeSuccess, Clicked, nil)
	}
	if outcome, ok := terminal(err); ok {
		return done(outcome, ClickNone, err)
	}
	if ctx.Err() != nil {
		return done(core.OutcomeTimeout, ClickNone, ctx.Err())
	}
	if nativeOnly {
		return done(notClickable(res.Matched), ClickNone, errors.Unwrap(err))
	}

	// WaitingPresent
	res.Predicate = core.PredicatePresent
	sub := core.WaitPolicy{Timeout: policy.PollInterval, PollInterval: policy.PollInterval}
	st, err = query.Poll(ctx, sub, attempt(core.PredicatePresent, scriptClick))
	res.Polls += st.Polls
	if err == nil {
		logger.Info("clicked %s programmatically after %s", target.Describe(), time.Since(start))
		return done(core.OutcomeSuccess, JsClicked, nil)
	}
	if outcome, ok := terminal(err); ok {
		return done(outcome, ClickNone, err)
	}
	return done(notClickable(res.Matched), ClickNone, errors.Unwrap(err))
}

func nativeClick(budget time.Duration) func(ctx context.Context, el core.Element) error {
	return func(ctx context.Context, el core.Element) error {
		return el.Click(core.WithAttemptBudget(ctx, budget))
	}
}

func scriptClick(ctx context.Context, el core.Element) error { return el.ClickScript(ctx) }

// terminal maps errors that end an action early to their outcome.
func terminal(err error) (core.OutcomeKind, bool) {
	switch {
	case errors.Is(err, core.ErrWaitTimeout):
		return 0, false
	case errors.Is(err, core.ErrStaleElement):
		return core.OutcomeStaleElement, true
	default:
		return core.OutcomeFailed, true
	}
}

func notClickable(matched int) core.OutcomeKind {
	if matched == 0 {
		return core.OutcomeNotFound
	}
	return core.OutcomeNotInteractable
}

// withElement resolves target under pred and runs fn on it, re-resolving
// once on a stale handle. Expiry with nothing ever present is NotFound.
func (s *Session) withElement(ctx context.Context, target core.Target, pred core.Predicate, policy core.WaitPolicy, fn func(ctx context.Context, el core.Element) error) core.Result[core.Element] {
	start := time.Now()
	res := core.Result[core.Element]{Target: target, Predicate: pred}
	stale := 0

	st, err := query.Poll(ctx, s.resolve(policy), func(ctx context.Context) (bool, error) {
		h, matched, err := query.Once(ctx, s.drv, target, pred)
		if matched > res.Matched {
			res.Matched = matched
		}
		if err != nil || h == nil {
			return false, err
		}
		if err := fn(ctx, h.Element); err != nil {
			if errors.Is(err, core.ErrStaleElement) {
				stale++
				if stale > 1 {
					return false, err
				}
				return false, nil
			}
			return false, err
		}
		res.Value, res.Locator = h.Element, h.Locator
		return true, nil
	})

	res.Polls, res.Elapsed = st.Polls, time.Since(start)
	switch {
	case err == nil:
		res.Kind = core.OutcomeSuccess
	case errors.Is(err, core.ErrWaitTimeout):
		res.Cause = errors.Unwrap(err)
		res.Kind = core.OutcomeTimeout
		if res.Matched == 0 && ctx.Err() == nil {
			res.Kind = core.OutcomeNotFound
		}
	default:
		res.Kind, _ = terminal(err)
		res.Cause = err
	}
	return res
}

// Type resolves target as present, clears it and sends text.
func (s *Session) Type(ctx context.Context, target core.Target, text string, policy core.WaitPolicy) core.Result[string] {
	release, err := s.acquire()
	if err != nil {
		return failed[string](target, err)
	}
	defer release()

	r := s.withElement(ctx, target, core.PredicatePresent, policy, func(ctx context.Context, el core.Element) error {
		if err := el.Clear(ctx); err != nil {
			return err
		}
		return el.SendKeys(ctx, text)
	})
	return core.Map(r, text)
}

// PressEnter sends the Enter key to target.
func (s *Session) PressEnter(ctx context.Context, target core.Target, policy core.WaitPolicy) core.Result[string] {
	release, err := s.acquire()
	if err != nil {
		return failed[string](target, err)
	}
	defer release()

	r := s.withElement(ctx, target, core.PredicatePresent, policy, func(ctx context.Context, el core.Element) error {
		return el.SendKeys(ctx, core.KeyEnter)
	})
	return core.Map(r, core.KeyEnter)
}

// ReadText returns the trimmed text of the first present match of target,
// or OutcomeNotFound when nothing ever matched.
func (s *Session) ReadText(ctx context.Context, target core.Target, policy core.WaitPolicy) core.Result[string] {
	release, err := s.acquire()
	if err != nil {
		return failed[string](target, err)
	}
	defer release()

	var text string
	r := s.withElement(ctx, target, core.PredicatePresent, policy, func(ctx context.Context, el core.Element) error {
		t, err := el.Text(ctx)
		text = strings.TrimSpace(t)
		return err
	})
	return core.Map(r, text)
}

// ReadAttribute returns an attribute of the first present match of target.
func (s *Session) ReadAttribute(ctx context.Context, target core.Target, name string, policy core.WaitPolicy) core.Result[string] {
	release, err := s.acquire()
	if err != nil {
		return failed[string](target, err)
	}
	defer release()

	var value string
	r := s.withElement(ctx, target, core.PredicatePresent, policy, func(ctx context.Context, el core.Element) error {
		v, err := el.Attribute(ctx, name)
		value = v
		return err
	})
	return core.Map(r, value)
}

// Elements waits for the first candidate of target with at least one match
// and returns the ordered matches.
func (s *Session) Elements(ctx context.Context, target core.Target, policy core.WaitPolicy) core.Result[[]core.Element] {
	release, err := s.acquire()
	if err != nil {
		return failed[[]core.Element](target, err)
	}
	defer release()
	return query.FindAll(ctx, s.drv, target, s.resolve(policy))
}

// Count returns how many elements the winning candidate of target matches.
// An expired wait carries a zero value.
func (s *Session) Count(ctx context.Context, target core.Target, policy core.WaitPolicy) core.Result[int] {
	r := s.Elements(ctx, target, policy)
	return core.Map(r, len(r.Value))
}

// IsPresent waits until target is attached to the DOM.
func (s *Session) IsPresent(ctx context.Context, target core.Target, policy core.WaitPolicy) core.Result[core.Element] {
	return s.find(ctx, target, core.PredicatePresent, policy)
}

// IsVisible waits until target is displayed.
func (s *Session) IsVisible(ctx context.Context, target core.Target, policy core.WaitPolicy) core.Result[core.Element] {
	return s.find(ctx, target, core.PredicateVisible, policy)
}

func (s *Session) find(ctx context.Context, target core.Target, pred core.Predicate, policy core.WaitPolicy) core.Result[core.Element] {
	release, err := s.acquire()
	if err != nil {
		return failed[core.Element](target, err)
	}
	defer release()

	r := query.Find(ctx, s.drv, target, pred, s.resolve(policy))
	return core.Map(r, r.Value.Element)
}

// CurrentURL returns the URL of the current page.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	release, err := s.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	return s.drv.CurrentURL(ctx)
}

// WaitURLContains polls the current URL until it contains substr. The value
// is the last URL seen.
func (s *Session) WaitURLContains(ctx context.Context, substr string, policy core.WaitPolicy) core.Result[string] {
	return s.waitURL(ctx, "url contains "+substr, policy, func(u string) bool {
		return strings.Contains(u, substr)
	})
}

// WaitURLChanged polls the current URL until it differs from prior.
func (s *Session) WaitURLChanged(ctx context.Context, prior string, policy core.WaitPolicy) core.Result[string] {
	return s.waitURL(ctx, "url changed from "+prior, policy, func(u string) bool {
		return u != prior
	})
}

func (s *Session) waitURL(ctx context.Context, name string, policy core.WaitPolicy, ok func(string) bool) core.Result[string] {
	target := core.Target{Name: name}
	release, err := s.acquire()
	if err != nil {
		return failed[string](target, err)
	}
	defer release()

	var last string
	st, err := query.Poll(ctx, s.resolve(policy), func(ctx context.Context) (bool, error) {
		u, err := s.drv.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		last = u
		return ok(u), nil
	})

	res := core.Result[string]{Target: target, Value: last, Polls: st.Polls, Elapsed: st.Elapsed}
	switch {
	case err == nil:
		res.Kind = core.OutcomeSuccess
	case errors.Is(err, core.ErrWaitTimeout):
		res.Kind = core.OutcomeTimeout
		res.Cause = errors.Unwrap(err)
		logger.Debug("%s: still %s after %s", name, last, st.Elapsed)
	default:
		res.Kind = core.OutcomeFailed
		res.Cause = err
	}
	return res
}
