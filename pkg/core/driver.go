package core

import (
	"context"
	"time"
)

// KeyEnter is the W3C WebDriver code point for the Enter/Return key.
const KeyEnter = "\ue007"

// Driver is the browser automation collaborator. Implementations: W3C
// WebDriver (remote Selenium/Selenoid), Playwright, in-memory mock.
// The page layer owns polling; a Driver answers single queries.
type Driver interface {
	// Navigate loads url in the current window.
	Navigate(ctx context.Context, url string) error

	// ExecuteScript runs a synchronous script and returns its value.
	ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error)

	// FindElements returns the current ordered matches; no matches is not an error.
	FindElements(ctx context.Context, loc Locator) ([]Element, error)

	// CurrentURL returns the URL of the current page.
	CurrentURL(ctx context.Context) (string, error)

	// PageSource returns the serialized DOM.
	PageSource(ctx context.Context) (string, error)

	// Screenshot captures the viewport as PNG
	Screenshot(ctx context.Context) ([]byte, error)

	// BrowserLogs returns console entries collected since the last call.
	BrowserLogs(ctx context.Context) ([]LogEntry, error)

	// SessionID identifies the remote session (used for video links).
	SessionID() string

	// Close releases the browser session.
	Close() error
}

// Element is a handle to one DOM node resolved by a single query.
// Methods return an error wrapping ErrStaleElement once the node is detached,
// and ErrElementNotInteractable when a native click is intercepted.
type Element interface {
	ID() string
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	Displayed(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	// Click performs a native user click.
	Click(ctx context.Context) error
	// ClickScript dispatches a programmatic click on the node, bypassing overlays.
	ClickScript(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
}

type attemptBudgetKey struct{}

// WithAttemptBudget bounds how long a driver may wait inside one interaction
// attempt, such as a native click waiting for the element to become
// actionable. Unlike a deadline it does not cancel in-flight requests.
func WithAttemptBudget(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, attemptBudgetKey{}, d)
}

// AttemptBudget returns the budget set by WithAttemptBudget.
func AttemptBudget(ctx context.Context) (time.Duration, bool) {
	d, ok := ctx.Value(attemptBudgetKey{}).(time.Duration)
	return d, ok && d > 0
}

// LogEntry represents a single log message captured from the browser
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`  // SEVERE, WARNING, INFO, DEBUG
	Source    string    `json:"source"` // console-api, network, javascript
	Message   string    `json:"message"`
}
