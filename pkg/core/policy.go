package core

import (
	"fmt"
	"time"
)

// Default wait settings used when a session is created without a policy.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
)

// DefaultWaitPolicy is the process-wide default for bounded waits.
var DefaultWaitPolicy = WaitPolicy{Timeout: DefaultTimeout, PollInterval: DefaultPollInterval}

// WaitPolicy bounds every polling loop. Timeout >= PollInterval > 0.
type WaitPolicy struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	PollInterval time.Duration `yaml:"pollInterval" json:"pollInterval"`
}

// NewWaitPolicy validates and returns a policy.
func NewWaitPolicy(timeout, pollInterval time.Duration) (WaitPolicy, error) {
	p := WaitPolicy{Timeout: timeout, PollInterval: pollInterval}
	if err := p.Validate(); err != nil {
		return WaitPolicy{}, err
	}
	return p, nil
}

// MustWaitPolicy is NewWaitPolicy that panics on invalid values.
func MustWaitPolicy(timeout, pollInterval time.Duration) WaitPolicy {
	p, err := NewWaitPolicy(timeout, pollInterval)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate checks the policy invariants.
func (p WaitPolicy) Validate() error {
	if p.PollInterval <= 0 {
		return ErrInvalidPolicy.WithMessage(fmt.Sprintf("poll interval must be positive, got %s", p.PollInterval))
	}
	if p.Timeout < p.PollInterval {
		return ErrInvalidPolicy.WithMessage(fmt.Sprintf("timeout %s is shorter than poll interval %s", p.Timeout, p.PollInterval))
	}
	return nil
}

// IsZero reports whether no value was set; callers substitute their default.
func (p WaitPolicy) IsZero() bool {
	return p.Timeout == 0 && p.PollInterval == 0
}

// Or returns p, or def when p is the zero value.
func (p WaitPolicy) Or(def WaitPolicy) WaitPolicy {
	if p.IsZero() {
		return def
	}
	return p
}

// Deadline returns the instant the policy expires when started at start.
func (p WaitPolicy) Deadline(start time.Time) time.Time {
	return start.Add(p.Timeout)
}

// String renders the policy for logs.
func (p WaitPolicy) String() string {
	return fmt.Sprintf("timeout=%s poll=%s", p.Timeout, p.PollInterval)
}

// Predicate is the condition an element must satisfy in a query.
type Predicate int

// Predicate values
const (
	PredicatePresent   Predicate = iota // attached to the DOM
	PredicateVisible                    // displayed
	PredicateClickable                  // displayed and enabled
)

// String returns the predicate name.
func (p Predicate) String() string {
	switch p {
	case PredicatePresent:
		return "present"
	case PredicateVisible:
		return "visible"
	case PredicateClickable:
		return "clickable"
	default:
		return "unknown"
	}
}
