package core

import (
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, wait_timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context (target, predicate, elapsed)
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code.
// Copies made by WithCause/WithMessage/WithDetails still match the predefined errors.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Lookup errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrStaleElement = &ExecutionError{
		Category: ErrCategoryInteraction,
		Code:     "stale_element",
		Message:  "element reference is stale",
	}
	ErrElementNotInteractable = &ExecutionError{
		Category: ErrCategoryInteraction,
		Code:     "element_not_interactable",
		Message:  "element not interactable",
	}

	ErrCheckFailed = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "check_failed",
		Message:  "check failed",
	}

	// Timeout errors
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}
	ErrNavigationTimeout = &ExecutionError{
		Category: ErrCategoryNavigation,
		Code:     "navigation_timeout",
		Message:  "page did not reach ready state",
	}

	// Programmer errors
	ErrInvalidLocator = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_locator",
		Message:  "invalid locator",
	}
	ErrInvalidPolicy = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_policy",
		Message:  "invalid wait policy",
	}

	// Session errors
	ErrSessionBusy = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "session_busy",
		Message:  "page session is already in use",
	}
	ErrSessionClosed = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "session_closed",
		Message:  "page session is closed",
	}
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not connect to browser automation server",
	}

	// API errors
	ErrUnexpectedStatus = &ExecutionError{
		Category: ErrCategoryAPI,
		Code:     "unexpected_status",
		Message:  "unexpected HTTP status",
	}
	ErrSchemaMismatch = &ExecutionError{
		Category: ErrCategoryAPI,
		Code:     "schema_mismatch",
		Message:  "response does not match schema",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingRequired = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_required",
		Message:  "missing required field",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
