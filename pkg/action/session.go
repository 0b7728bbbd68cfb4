// Package action implements page interactions on top of a live browser
// session: navigation with ready-state waits, resilient clicks, typing,
// text reads, URL waits and artifact capture.
package action

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/logger"
)

// Session is one test's exclusive binding to a browser driver. Every action
// takes the session for its duration; overlapping use fails fast with
// core.ErrSessionBusy instead of interleaving driver traffic.
type Session struct {
	drv     core.Driver
	policy  core.WaitPolicy
	sink    core.AttachmentSink
	baseURL string

	mu        sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Session.
type Option func(*Session)

// WithPolicy sets the default wait policy used when an action gets a zero policy.
func WithPolicy(p core.WaitPolicy) Option {
	return func(s *Session) { s.policy = p }
}

// WithSink sets where captured artifacts go.
func WithSink(sink core.AttachmentSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithBaseURL resolves relative paths passed to Open.
func WithBaseURL(u string) Option {
	return func(s *Session) { s.baseURL = strings.TrimRight(u, "/") }
}

// NewSession binds drv to a new session.
func NewSession(drv core.Driver, opts ...Option) (*Session, error) {
	if drv == nil {
		return nil, core.ErrMissingRequired.WithMessage("session needs a driver")
	}
	s := &Session{
		drv:    drv,
		policy: core.DefaultWaitPolicy,
		sink:   core.NullSink{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	if s.sink == nil {
		s.sink = core.NullSink{}
	}
	return s, nil
}

// OpenFunc provisions a driver for one test.
type OpenFunc func(ctx context.Context) (core.Driver, error)

// Acquire opens a driver and binds it to a new session. The returned release
// func closes the session exactly once no matter how often it is called;
// callers defer it so teardown happens on every exit path.
func Acquire(ctx context.Context, open OpenFunc, opts ...Option) (*Session, func() error, error) {
	drv, err := open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open driver: %w", err)
	}
	s, err := NewSession(drv, opts...)
	if err != nil {
		_ = drv.Close()
		return nil, nil, err
	}
	return s, s.Close, nil
}

// Policy returns the session default wait policy.
func (s *Session) Policy() core.WaitPolicy { return s.policy }

// Sink returns the attachment sink.
func (s *Session) Sink() core.AttachmentSink { return s.sink }

// SessionID returns the driver session id.
func (s *Session) SessionID() string { return s.drv.SessionID() }

// Close releases the driver. Safe to call more than once; it waits for an
// action in flight to finish its bounded wait.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed.Store(true)
		s.closeErr = s.drv.Close()
		if s.closeErr != nil {
			logger.Warn("closing driver session %s: %v", s.drv.SessionID(), s.closeErr)
		}
	})
	return s.closeErr
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed.Load() }

// acquire takes exclusive use of the session.
func (s *Session) acquire() (func(), error) {
	if s.closed.Load() {
		return nil, core.ErrSessionClosed
	}
	if !s.mu.TryLock() {
		return nil, core.ErrSessionBusy
	}
	if s.closed.Load() {
		s.mu.Unlock()
		return nil, core.ErrSessionClosed
	}
	return s.mu.Unlock, nil
}

func (s *Session) resolve(p core.WaitPolicy) core.WaitPolicy {
	return p.Or(s.policy)
}

func (s *Session) absURL(u string) string {
	if s.baseURL != "" && strings.HasPrefix(u, "/") {
		return s.baseURL + u
	}
	return u
}

// failed builds a result for an action that could not start.
func failed[T any](target core.Target, err error) core.Result[T] {
	return core.Result[T]{Kind: core.OutcomeFailed, Target: target, Cause: err}
}
