package core

import "errors"

// StepStatus represents the execution status of a scenario or step
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Completed successfully
	StatusFailed                    // Check failed (expected behavior didn't occur)
	StatusErrored                   // Unexpected error (driver, timeout, transport)
	StatusSkipped                   // Filtered out or run cancelled
	StatusWarned                    // Non-blocking failure
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	case StatusWarned:
		return "warned"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped, StatusWarned:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success (passed or warned)
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusWarned
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone        ErrorCategory = iota // No error
	ErrCategoryAssertion                        // Element not found, text mismatch, visibility check failed
	ErrCategoryTimeout                          // Wait timed out
	ErrCategoryConnection                       // Driver session lost or unreachable
	ErrCategoryInteraction                      // Stale or non-interactable element
	ErrCategoryNavigation                       // Page never reached ready state
	ErrCategoryAPI                              // Unexpected HTTP status or payload
	ErrCategoryConfig                           // Invalid configuration, locator or policy
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryInteraction:
		return "interaction"
	case ErrCategoryNavigation:
		return "navigation"
	case ErrCategoryAPI:
		return "api"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// StatusOf classifies an error returned by a scenario or step. Assertion and
// API mismatches are failures; anything else is an unexpected error.
func StatusOf(err error) StepStatus {
	if err == nil {
		return StatusPassed
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		switch ee.Category {
		case ErrCategoryAssertion, ErrCategoryAPI:
			return StatusFailed
		}
	}
	return StatusErrored
}
