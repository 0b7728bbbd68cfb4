package scenario

import (
	"fmt"
	"os"
	"sync"

	"github.com/bookqa/bookqa/pkg/action"
	"github.com/bookqa/bookqa/pkg/api"
	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/pages"
)

// Recorder is what a scenario reports into: nested steps and attachments.
// report.TestCase implements it.
type Recorder interface {
	core.AttachmentSink
	Step(name string, fn func() error) error
}

// Env is what a running scenario sees. Session and Pages are set for UI
// scenarios, API for API scenarios.
type Env struct {
	Session *action.Session
	Pages   *pages.Pages
	API     *api.Client

	rec     Recorder
	tempDir string

	mu    sync.Mutex
	temps []string
}

// Step runs fn as a named report step.
func (e *Env) Step(name string, fn func() error) error {
	return e.rec.Step(name, fn)
}

// Attach adds an attachment to the current step.
func (e *Env) Attach(name, contentType string, body []byte) error {
	return e.rec.Attach(name, contentType, body)
}

// Checkf returns nil when cond holds, otherwise a check failure with the
// formatted message.
func Checkf(cond bool, format string, args ...interface{}) error {
	if cond {
		return nil
	}
	return core.ErrCheckFailed.WithMessage(fmt.Sprintf(format, args...))
}

// Checkf is the package Checkf, here for scenario bodies.
func (e *Env) Checkf(cond bool, format string, args ...interface{}) error {
	return Checkf(cond, format, args...)
}

// TempDir creates a directory removed when the scenario ends.
func (e *Env) TempDir() (string, error) {
	dir, err := os.MkdirTemp(e.tempDir, "bookqa-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	e.mu.Lock()
	e.temps = append(e.temps, dir)
	e.mu.Unlock()
	return dir, nil
}

func (e *Env) cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, dir := range e.temps {
		_ = os.RemoveAll(dir)
	}
	e.temps = nil
}
