package webdriver

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/logger"
)

// Options describes the remote browser to provision.
type Options struct {
	// ServerURL is the hub endpoint, e.g. https://selenoid.autotests.cloud/wd/hub.
	// A bare host is expanded to https://<host>/wd/hub.
	ServerURL string
	Username  string
	Password  string

	BrowserName    string // default chrome
	BrowserVersion string
	EnableVNC      bool
	EnableVideo    bool
	EnableLog      bool
	// Extra capabilities merged last.
	Capabilities map[string]interface{}
}

// HubURL normalizes ServerURL.
func (o Options) HubURL() string {
	u := strings.TrimSuffix(o.ServerURL, "/")
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	if !strings.HasSuffix(u, "/wd/hub") && strings.Count(u, "/") == 2 {
		u += "/wd/hub"
	}
	return u
}

// BuildCapabilities returns the W3C alwaysMatch capabilities, including the
// Selenoid vendor options and browser log collection.
func (o Options) BuildCapabilities() map[string]interface{} {
	browser := o.BrowserName
	if browser == "" {
		browser = "chrome"
	}
	caps := map[string]interface{}{
		"browserName": browser,
		"selenoid:options": map[string]interface{}{
			"enableVNC":   o.EnableVNC,
			"enableVideo": o.EnableVideo,
			"enableLog":   o.EnableLog,
		},
		"goog:loggingPrefs": map[string]interface{}{"browser": "ALL"},
	}
	if o.BrowserVersion != "" {
		caps["browserVersion"] = o.BrowserVersion
	}
	for k, v := range o.Capabilities {
		caps[k] = v
	}
	return caps
}

// Driver implements core.Driver against a remote WebDriver session.
type Driver struct {
	client *Client
}

// New creates a remote session.
func New(ctx context.Context, opts Options) (*Driver, error) {
	if opts.ServerURL == "" {
		return nil, core.ErrMissingRequired.WithMessage("webdriver server URL is not set")
	}
	client := NewClient(opts.HubURL())
	if opts.Username != "" {
		client.SetBasicAuth(opts.Username, opts.Password)
	}
	if err := client.Connect(ctx, opts.BuildCapabilities()); err != nil {
		return nil, err
	}
	logger.Info("webdriver session %s created on %s", client.SessionID(), opts.HubURL())
	return &Driver{client: client}, nil
}

// NewWithClient wraps an already connected client.
func NewWithClient(client *Client) *Driver {
	return &Driver{client: client}
}

// Navigate implements core.Driver.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.client.OpenURL(ctx, url)
}

// ExecuteScript implements core.Driver. Element arguments are sent as W3C
// element references.
func (d *Driver) ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error) {
	wire := make([]interface{}, len(args))
	for i, a := range args {
		if el, ok := a.(*Element); ok {
			wire[i] = ElementReference(el.id)
			continue
		}
		wire[i] = a
	}
	return d.client.ExecuteScript(ctx, script, wire)
}

// FindElements implements core.Driver.
func (d *Driver) FindElements(ctx context.Context, loc core.Locator) ([]core.Element, error) {
	ids, err := d.client.FindElements(ctx, loc.Strategy().W3C(), loc.Value())
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	out := make([]core.Element, len(ids))
	for i, id := range ids {
		out[i] = &Element{d: d, id: id}
	}
	return out, nil
}

// CurrentURL implements core.Driver.
func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	return d.client.CurrentURL(ctx)
}

// PageSource implements core.Driver.
func (d *Driver) PageSource(ctx context.Context) (string, error) {
	return d.client.Source(ctx)
}

// Screenshot implements core.Driver.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.client.Screenshot(ctx)
}

// BrowserLogs implements core.Driver.
func (d *Driver) BrowserLogs(ctx context.Context) ([]core.LogEntry, error) {
	return d.client.Logs(ctx, "browser")
}

// SessionID implements core.Driver.
func (d *Driver) SessionID() string {
	return d.client.SessionID()
}

// Close deletes the remote session.
func (d *Driver) Close() error {
	return d.client.Disconnect(context.Background())
}

// Element is a remote element reference.
type Element struct {
	d  *Driver
	id string
}

// ID implements core.Element.
func (e *Element) ID() string { return e.id }

// Text implements core.Element.
func (e *Element) Text(ctx context.Context) (string, error) {
	return e.d.client.GetElementText(ctx, e.id)
}

// Attribute implements core.Element.
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	return e.d.client.GetElementAttribute(ctx, e.id, name)
}

// Displayed implements core.Element.
func (e *Element) Displayed(ctx context.Context) (bool, error) {
	return e.d.client.IsElementDisplayed(ctx, e.id)
}

// Enabled implements core.Element.
func (e *Element) Enabled(ctx context.Context) (bool, error) {
	return e.d.client.IsElementEnabled(ctx, e.id)
}

// Click implements core.Element.
func (e *Element) Click(ctx context.Context) error {
	return e.d.client.ClickElement(ctx, e.id)
}

// ClickScript implements core.Element.
func (e *Element) ClickScript(ctx context.Context) error {
	_, err := e.d.ExecuteScript(ctx, "arguments[0].click();", e)
	return err
}

// Clear implements core.Element.
func (e *Element) Clear(ctx context.Context) error {
	return e.d.client.ClearElement(ctx, e.id)
}

// SendKeys implements core.Element.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	return e.d.client.SendElementKeys(ctx, e.id, text)
}

var (
	_ core.Driver  = (*Driver)(nil)
	_ core.Element = (*Element)(nil)
)
