package webdriver

import (
	"fmt"

	"github.com/bookqa/bookqa/pkg/core"
)

// W3C error codes the page layer reacts to.
const (
	errStaleElement       = "stale element reference"
	errClickIntercepted   = "element click intercepted"
	errElementNotInteract = "element not interactable"
	errNoSuchElement      = "no such element"
	errInvalidSelector    = "invalid selector"
	errInvalidSessionID   = "invalid session id"
	errSessionNotCreated  = "session not created"
)

// mapError turns a W3C error response into an error matching the core
// sentinels, keeping the remote message.
func mapError(code, message string) error {
	msg := fmt.Sprintf("%s: %s", code, firstLine(message))
	switch code {
	case errStaleElement:
		return core.ErrStaleElement.WithMessage(msg)
	case errClickIntercepted, errElementNotInteract:
		return core.ErrElementNotInteractable.WithMessage(msg)
	case errNoSuchElement:
		return core.ErrElementNotFound.WithMessage(msg)
	case errInvalidSelector:
		return core.ErrInvalidLocator.WithMessage(msg)
	case errInvalidSessionID:
		return core.ErrSessionClosed.WithMessage(msg)
	case errSessionNotCreated:
		return core.ErrServerUnreachable.WithMessage(msg)
	default:
		return fmt.Errorf("%s", msg)
	}
}

// firstLine drops the stack trace chromedriver appends to messages.
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
