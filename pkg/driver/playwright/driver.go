// Package playwright implements core.Driver on a local Chromium launched
// through playwright-go. It serves local runs and debugging without a grid.
package playwright

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/logger"
)

// Options configures the local browser.
type Options struct {
	Headless bool
	// SlowMo delays each operation; useful when watching a headed run.
	SlowMo time.Duration
	// ActionTimeout bounds a single native click before it counts as intercepted.
	ActionTimeout time.Duration
	ViewportWidth  int
	ViewportHeight int
}

// DefaultOptions returns headless Chromium at 1920x1080.
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		ActionTimeout:  time.Second,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}
}

// Driver implements core.Driver over one playwright page.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	id      string
	opts    Options

	mu   sync.Mutex
	logs []core.LogEntry
}

// New starts playwright, launches Chromium and opens a page.
func New(ctx context.Context, opts Options) (*Driver, error) {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = time.Second
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, core.ErrServerUnreachable.WithMessage("failed to start playwright").WithCause(err)
	}

	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, core.ErrServerUnreachable.WithMessage("failed to launch chromium").WithCause(err)
	}

	pageOpts := playwright.BrowserNewPageOptions{}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		pageOpts.Viewport = &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight}
	}
	page, err := browser.NewPage(pageOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	d := &Driver{pw: pw, browser: browser, page: page, id: uuid.NewString(), opts: opts}
	page.On("console", func(msg playwright.ConsoleMessage) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.logs = append(d.logs, core.LogEntry{
			Timestamp: time.Now(),
			Level:     consoleLevel(msg.Type()),
			Source:    "console-api",
			Message:   msg.Text(),
		})
	})
	logger.Info("playwright chromium started (headless=%v, session %s)", opts.Headless, d.id)
	return d, nil
}

// consoleLevel maps console message types onto WebDriver log levels.
func consoleLevel(t string) string {
	switch t {
	case "error":
		return "SEVERE"
	case "warning":
		return "WARNING"
	case "debug":
		return "DEBUG"
	default:
		return "INFO"
	}
}

// selector renders a locator in playwright's engine syntax.
func selector(loc core.Locator) string {
	if loc.Strategy() == core.StrategyXPath {
		return "xpath=" + loc.Value()
	}
	return "css=" + loc.Value()
}

// wrapScript adapts a WebDriver-style script body (using `return` and
// `arguments`) into a playwright function expression.
func wrapScript(script string) string {
	return "(arguments) => { " + script + " }"
}

// Navigate implements core.Driver.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateCommit,
		Timeout:   timeoutMillis(ctx, 0),
	})
	return mapError(err)
}

// ExecuteScript implements core.Driver.
func (d *Driver) ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error) {
	wire := make([]interface{}, len(args))
	for i, a := range args {
		if el, ok := a.(*Element); ok {
			wire[i] = el.h
			continue
		}
		wire[i] = a
	}
	v, err := d.page.Evaluate(wrapScript(script), wire)
	return v, mapError(err)
}

// FindElements implements core.Driver.
func (d *Driver) FindElements(ctx context.Context, loc core.Locator) ([]core.Element, error) {
	handles, err := d.page.QuerySelectorAll(selector(loc))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, mapError(err))
	}
	out := make([]core.Element, len(handles))
	for i, h := range handles {
		out[i] = &Element{d: d, h: h, id: fmt.Sprintf("%s#%d", loc, i)}
	}
	return out, nil
}

// CurrentURL implements core.Driver.
func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	return d.page.URL(), nil
}

// PageSource implements core.Driver.
func (d *Driver) PageSource(ctx context.Context) (string, error) {
	src, err := d.page.Content()
	return src, mapError(err)
}

// Screenshot implements core.Driver.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := d.page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	return data, mapError(err)
}

// BrowserLogs implements core.Driver. Entries are drained.
func (d *Driver) BrowserLogs(ctx context.Context) ([]core.LogEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.logs
	d.logs = nil
	return out, nil
}

// SessionID implements core.Driver. Local sessions get a random id.
func (d *Driver) SessionID() string { return d.id }

// Close implements core.Driver.
func (d *Driver) Close() error {
	var errs []error
	if err := d.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := d.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

// Element wraps an element handle.
type Element struct {
	d  *Driver
	h  playwright.ElementHandle
	id string
}

// ID implements core.Element.
func (e *Element) ID() string { return e.id }

// Text implements core.Element.
func (e *Element) Text(ctx context.Context) (string, error) {
	s, err := e.h.InnerText()
	return s, mapError(err)
}

// Attribute implements core.Element.
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	s, err := e.h.GetAttribute(name)
	return s, mapError(err)
}

// Displayed implements core.Element.
func (e *Element) Displayed(ctx context.Context) (bool, error) {
	ok, err := e.h.IsVisible()
	return ok, mapError(err)
}

// Enabled implements core.Element.
func (e *Element) Enabled(ctx context.Context) (bool, error) {
	ok, err := e.h.IsEnabled()
	return ok, mapError(err)
}

// Click implements core.Element. Playwright's own actionability wait is
// capped at ActionTimeout, or the caller's attempt budget when smaller, so
// the caller's poll loop stays in charge.
func (e *Element) Click(ctx context.Context) error {
	err := e.h.Click(playwright.ElementHandleClickOptions{
		Timeout: timeoutMillis(ctx, e.d.opts.ActionTimeout),
	})
	return mapError(err)
}

// ClickScript implements core.Element.
func (e *Element) ClickScript(ctx context.Context) error {
	_, err := e.h.Evaluate("el => el.click()")
	return mapError(err)
}

// Clear implements core.Element.
func (e *Element) Clear(ctx context.Context) error {
	return mapError(e.h.Fill(""))
}

// SendKeys implements core.Element. core.KeyEnter is sent as a key press.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	if text == core.KeyEnter {
		return mapError(e.h.Press("Enter"))
	}
	before, enter := strings.CutSuffix(text, core.KeyEnter)
	if err := e.h.Type(before); err != nil {
		return mapError(err)
	}
	if enter {
		return mapError(e.h.Press("Enter"))
	}
	return nil
}

// timeoutMillis returns def in milliseconds, lowered to the attempt budget
// or the ctx deadline when either is sooner.
func timeoutMillis(ctx context.Context, def time.Duration) *float64 {
	if b, ok := core.AttemptBudget(ctx); ok && (def == 0 || b < def) {
		def = b
	}
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); def == 0 || rem < def {
			def = rem
		}
	}
	if def <= 0 {
		return nil
	}
	return playwright.Float(float64(def.Milliseconds()))
}

// mapError classifies playwright errors onto the core sentinels by message.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not attached"), strings.Contains(msg, "Execution context was destroyed"):
		return core.ErrStaleElement.WithCause(err)
	case strings.Contains(msg, "intercepts pointer events"),
		strings.Contains(msg, "not visible"),
		strings.Contains(msg, "not enabled"),
		errors.Is(err, playwright.ErrTimeout):
		return core.ErrElementNotInteractable.WithCause(err)
	case strings.Contains(msg, "Unexpected token"), strings.Contains(msg, "is not a valid selector"):
		return core.ErrInvalidLocator.WithCause(err)
	case strings.Contains(msg, "Target page, context or browser has been closed"):
		return core.ErrSessionClosed.WithCause(err)
	}
	return err
}

var (
	_ core.Driver  = (*Driver)(nil)
	_ core.Element = (*Element)(nil)
)
