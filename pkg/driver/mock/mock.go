// Package mock provides a scriptable in-memory browser for testing the wait
// and page layers without a real browser.
package mock

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bookqa/bookqa/pkg/core"
)

// Node is one element of the fake DOM. Timings are relative to the last
// navigation (or driver creation).
type Node struct {
	ID    string
	Tag   string
	Text  string
	Attrs map[string]string

	AppearAfter time.Duration // absent until this much time has passed
	RemoveAfter time.Duration // detached after this much time; 0 = never
	Hidden      bool          // never displayed
	ShowAfter   time.Duration // displayed only after this much time
	Disabled    bool          // never enabled

	// InterceptFor makes native clicks fail as intercepted for this long.
	InterceptFor time.Duration
	// Overlay makes every native click fail as intercepted.
	Overlay bool
	// StaleClicks makes the next N clicks (native or scripted) fail as stale
	// and detach the handle that was clicked.
	StaleClicks int
	// StaleOps does the same for Text, Attribute, Clear and SendKeys.
	StaleOps int

	// OnClick runs after a successful click of either kind.
	OnClick func(d *Driver)

	Value string // text typed into the node

	gen int // handle generation; bumped on detach
}

// Config configures mock driver behavior.
type Config struct {
	// ReadyAfter delays document.readyState == "complete" after navigation.
	ReadyAfter time.Duration
	// NeverReady keeps the document loading forever.
	NeverReady bool
	// OnNavigate is called after every Navigate with the new URL.
	OnNavigate func(d *Driver, url string)
	// Script answers ExecuteScript calls other than the ready-state probe.
	Script func(script string, args ...interface{}) (interface{}, error)
	// Source overrides the generated page source.
	Source string
}

// Driver is a mock implementation of core.Driver.
type Driver struct {
	Config Config

	mu        sync.Mutex
	url       string
	loadedAt  time.Time
	nodes     map[string][]*Node
	failures  map[string]error
	logs      []core.LogEntry
	nextID    int
	closed    bool
	stats     Stats
	navigated []string
}

// Stats counts driver traffic for assertions in tests.
type Stats struct {
	Queries      int
	Clicks       int // successful native clicks
	ScriptClicks int // successful programmatic clicks
	Intercepted  int
	Stale        int
	// ClickBudget is the attempt budget seen by the last native click.
	ClickBudget time.Duration
	Closes       int
}

// New creates a new mock driver with an empty page.
func New(cfg Config) *Driver {
	return &Driver{
		Config:   cfg,
		url:      "about:blank",
		loadedAt: time.Now(),
		nodes:    make(map[string][]*Node),
		failures: make(map[string]error),
	}
}

// Add registers nodes matched by loc, in document order.
func (d *Driver) Add(loc core.Locator, nodes ...*Node) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range nodes {
		if n.ID == "" {
			d.nextID++
			n.ID = fmt.Sprintf("node-%d", d.nextID)
		}
		if n.Tag == "" {
			n.Tag = "div"
		}
	}
	d.nodes[loc.String()] = append(d.nodes[loc.String()], nodes...)
	return d
}

// Reset removes every node, as a page change would.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ns := range d.nodes {
		for _, n := range ns {
			n.gen++
		}
	}
	d.nodes = make(map[string][]*Node)
}

// Detach invalidates existing handles to n. Re-querying yields a fresh handle.
func (d *Driver) Detach(n *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n.gen++
}

// FailQuery makes FindElements for loc return err.
func (d *Driver) FailQuery(loc core.Locator, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[loc.String()] = err
}

// SetURL changes the current URL without navigating (client-side routing).
func (d *Driver) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
}

// AddLog appends a browser console entry.
func (d *Driver) AddLog(level, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logs = append(d.logs, core.LogEntry{Timestamp: time.Now(), Level: level, Source: "console-api", Message: message})
}

// Stats returns a snapshot of the traffic counters.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Navigated returns every URL passed to Navigate.
func (d *Driver) Navigated() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigated...)
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) since() time.Duration {
	return time.Since(d.loadedAt)
}

func (d *Driver) checkOpen() error {
	if d.closed {
		return core.ErrSessionClosed
	}
	return nil
}

// Navigate implements core.Driver.
func (d *Driver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	if err := d.checkOpen(); err != nil {
		d.mu.Unlock()
		return err
	}
	d.url = url
	d.loadedAt = time.Now()
	d.navigated = append(d.navigated, url)
	hook := d.Config.OnNavigate
	d.mu.Unlock()

	if hook != nil {
		hook(d, url)
	}
	return nil
}

// ExecuteScript implements core.Driver. The ready-state probe is answered
// from Config.ReadyAfter; everything else goes to Config.Script.
func (d *Driver) ExecuteScript(_ context.Context, script string, args ...interface{}) (interface{}, error) {
	d.mu.Lock()
	if err := d.checkOpen(); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	if strings.Contains(script, "document.readyState") {
		defer d.mu.Unlock()
		if d.Config.NeverReady || d.since() < d.Config.ReadyAfter {
			return "loading", nil
		}
		return "complete", nil
	}
	fn := d.Config.Script
	d.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(script, args...)
}

// FindElements implements core.Driver.
func (d *Driver) FindElements(_ context.Context, loc core.Locator) ([]core.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	d.stats.Queries++
	if err, ok := d.failures[loc.String()]; ok {
		return nil, err
	}

	var out []core.Element
	elapsed := d.since()
	for _, n := range d.nodes[loc.String()] {
		if !n.attached(elapsed) {
			continue
		}
		out = append(out, &Element{d: d, node: n, gen: n.gen})
	}
	return out, nil
}

func (n *Node) attached(elapsed time.Duration) bool {
	if elapsed < n.AppearAfter {
		return false
	}
	return n.RemoveAfter == 0 || elapsed < n.RemoveAfter
}

// CurrentURL implements core.Driver.
func (d *Driver) CurrentURL(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return "", err
	}
	return d.url, nil
}

// PageSource implements core.Driver. Without Config.Source it renders every
// attached node as a flat HTML document.
func (d *Driver) PageSource(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return "", err
	}
	if d.Config.Source != "" {
		return d.Config.Source, nil
	}

	keys := make([]string, 0, len(d.nodes))
	for k := range d.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("<html><body>")
	elapsed := d.since()
	for _, k := range keys {
		for _, n := range d.nodes[k] {
			if !n.attached(elapsed) {
				continue
			}
			fmt.Fprintf(&b, "<%s id=%q>%s</%s>", n.Tag, n.ID, html.EscapeString(n.Text), n.Tag)
		}
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

// Screenshot returns a mock PNG image.
func (d *Driver) Screenshot(_ context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	// Minimal valid PNG (1x1 transparent pixel)
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

// BrowserLogs implements core.Driver; entries are drained.
func (d *Driver) BrowserLogs(_ context.Context) ([]core.LogEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	logs := d.logs
	d.logs = nil
	return logs, nil
}

// SessionID implements core.Driver.
func (d *Driver) SessionID() string { return "mock-session" }

// Close implements core.Driver.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Closes++
	d.closed = true
	return nil
}

// Element is a handle to a Node captured by one FindElements call.
type Element struct {
	d    *Driver
	node *Node
	gen  int
}

// Node returns the underlying fake DOM node.
func (e *Element) Node() *Node { return e.node }

// ID implements core.Element.
func (e *Element) ID() string { return fmt.Sprintf("%s#%d", e.node.ID, e.gen) }

// stale reports a detached handle. Caller holds d.mu.
func (e *Element) stale() error {
	if err := e.d.checkOpen(); err != nil {
		return err
	}
	if e.gen != e.node.gen || !e.node.attached(e.d.since()) {
		e.d.stats.Stale++
		return core.ErrStaleElement.WithMessage("stale element reference: " + e.node.ID)
	}
	return nil
}

// Text implements core.Element.
func (e *Element) Text(_ context.Context) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.consumeStale(&e.node.StaleOps); err != nil {
		return "", err
	}
	return e.node.Text, nil
}

// Attribute implements core.Element.
func (e *Element) Attribute(_ context.Context, name string) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.consumeStale(&e.node.StaleOps); err != nil {
		return "", err
	}
	if name == "value" {
		return e.node.Value, nil
	}
	return e.node.Attrs[name], nil
}

// Displayed implements core.Element.
func (e *Element) Displayed(_ context.Context) (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.stale(); err != nil {
		return false, err
	}
	return !e.node.Hidden && e.d.since() >= e.node.ShowAfter, nil
}

// Enabled implements core.Element.
func (e *Element) Enabled(_ context.Context) (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.stale(); err != nil {
		return false, err
	}
	return !e.node.Disabled, nil
}

// Click implements core.Element.
func (e *Element) Click(ctx context.Context) error {
	e.d.mu.Lock()
	e.d.stats.ClickBudget, _ = core.AttemptBudget(ctx)
	if err := e.consumeStale(&e.node.StaleClicks); err != nil {
		e.d.mu.Unlock()
		return err
	}
	if e.node.Overlay || e.d.since() < e.node.InterceptFor {
		e.d.stats.Intercepted++
		e.d.mu.Unlock()
		return core.ErrElementNotInteractable.WithMessage("element click intercepted: " + e.node.ID)
	}
	e.d.stats.Clicks++
	hook := e.node.OnClick
	e.d.mu.Unlock()

	if hook != nil {
		hook(e.d)
	}
	return nil
}

// ClickScript implements core.Element. Overlays do not block it.
func (e *Element) ClickScript(_ context.Context) error {
	e.d.mu.Lock()
	if err := e.consumeStale(&e.node.StaleClicks); err != nil {
		e.d.mu.Unlock()
		return err
	}
	e.d.stats.ScriptClicks++
	hook := e.node.OnClick
	e.d.mu.Unlock()

	if hook != nil {
		hook(e.d)
	}
	return nil
}

// consumeStale checks the handle and spends one of the stale failures in
// budget. Caller holds d.mu.
func (e *Element) consumeStale(budget *int) error {
	if err := e.stale(); err != nil {
		return err
	}
	if *budget > 0 {
		*budget--
		e.node.gen++
		e.d.stats.Stale++
		return core.ErrStaleElement.WithMessage("stale element reference: " + e.node.ID)
	}
	return nil
}

// Clear implements core.Element.
func (e *Element) Clear(_ context.Context) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.consumeStale(&e.node.StaleOps); err != nil {
		return err
	}
	e.node.Value = ""
	return nil
}

// SendKeys implements core.Element. KeyEnter submits: it fires OnClick.
func (e *Element) SendKeys(_ context.Context, text string) error {
	e.d.mu.Lock()
	if err := e.consumeStale(&e.node.StaleOps); err != nil {
		e.d.mu.Unlock()
		return err
	}
	submit := strings.Contains(text, core.KeyEnter)
	e.node.Value += strings.ReplaceAll(text, core.KeyEnter, "")
	hook := e.node.OnClick
	e.d.mu.Unlock()

	if submit && hook != nil {
		hook(e.d)
	}
	return nil
}

var (
	_ core.Driver  = (*Driver)(nil)
	_ core.Element = (*Element)(nil)
)
