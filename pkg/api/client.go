// Package api is a thin HTTP client for the store backend. Each exchange is
// logged and attached to the report as request, response and curl command.
// It never retries: API checks assert on the first response.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/logger"
)

// DefaultBaseURL is the public store API.
const DefaultBaseURL = "https://api.litres.ru/foundation/api"

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

// Response is one completed exchange.
type Response struct {
	Method      string
	URL         string
	StatusCode  int
	Header      http.Header
	Body        []byte
	RequestBody []byte
	Elapsed     time.Duration
}

// JSON decodes the body into v.
func (r *Response) JSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%s %s: decode body: %w", r.Method, r.URL, err)
	}
	return nil
}

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Body) }

// ExpectStatus returns ErrUnexpectedStatus unless the status is one of want.
func (r *Response) ExpectStatus(want ...int) error {
	for _, w := range want {
		if r.StatusCode == w {
			return nil
		}
	}
	return core.ErrUnexpectedStatus.WithMessage(
		fmt.Sprintf("%s %s: expected status %v, got %d", r.Method, r.URL, want, r.StatusCode),
	).WithDetails(map[string]interface{}{"status": r.StatusCode, "body": truncate(r.Text(), 300)})
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	Headers    map[string]string
	HTTPClient *http.Client
	// RateLimit caps requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	Sink      core.AttachmentSink
}

// Client is one test's HTTP session. Default headers apply to every request.
type Client struct {
	baseURL string
	http    *http.Client
	headers http.Header
	limiter *rate.Limiter
	sink    core.AttachmentSink
}

// NewClient creates a client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	headers := http.Header{}
	headers.Set("User-Agent", opts.UserAgent)
	headers.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		headers: headers,
		sink:    opts.Sink,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	if c.sink == nil {
		c.sink = core.NullSink{}
	}
	return c
}

// WithSink returns a shallow copy that attaches to sink. The copy shares the
// HTTP client and rate limiter.
func (c *Client) WithSink(sink core.AttachmentSink) *Client {
	cp := *c
	if sink == nil {
		sink = core.NullSink{}
	}
	cp.sink = sink
	return &cp
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// request is the per-call state built by RequestOptions.
type request struct {
	query   url.Values
	body    interface{}
	headers http.Header
}

// RequestOption customizes one request.
type RequestOption func(*request)

// WithQuery adds a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(r *request) { r.query.Add(key, value) }
}

// WithJSON sets a JSON request body.
func WithJSON(body interface{}) RequestOption {
	return func(r *request) { r.body = body }
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *request) { r.headers.Set(key, value) }
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, endpoint, opts...)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, endpoint, opts...)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, endpoint, opts...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, endpoint, opts...)
}

// Do performs one request. A non-2xx status is not an error; only transport
// and encoding failures are.
func (c *Client) Do(ctx context.Context, method, endpoint string, opts ...RequestOption) (*Response, error) {
	r := &request{query: url.Values{}, headers: http.Header{}}
	for _, opt := range opts {
		opt(r)
	}

	u := c.baseURL + endpoint
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var reqBody []byte
	if r.body != nil {
		var err error
		if reqBody, err = marshal(r.body); err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, endpoint, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range c.headers {
		req.Header[k] = vs
	}
	for k, vs := range r.headers {
		req.Header[k] = vs
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	logger.Info("%s %s", method, u)
	if reqBody != nil {
		logger.Info("Request body: %s", reqBody)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error("%s %s failed: %v", method, u, err)
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, u, err)
	}
	out := &Response{
		Method:      method,
		URL:         u,
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        body,
		RequestBody: reqBody,
		Elapsed:     time.Since(start),
	}

	logger.Info("Status code: %d", out.StatusCode)
	logger.Info("Response time: %.3fs", out.Elapsed.Seconds())
	logger.Debug("Response body: %s", truncate(out.Text(), 2000))

	c.attach(out, r)
	return out, nil
}

// attach writes Request, Response and Curl attachments. Sink errors are
// logged and otherwise ignored so reporting never fails a check.
func (c *Client) attach(resp *Response, r *request) {
	var reqData []byte
	switch {
	case resp.RequestBody != nil:
		reqData = indent(resp.RequestBody)
	case len(r.query) > 0:
		reqData, _ = marshalIndent(flatten(r.query))
	}
	if reqData != nil {
		c.sinkAttach(core.AttachmentRequest, core.ContentTypeJSON, reqData)
	}

	if json.Valid(resp.Body) && len(resp.Body) > 0 {
		c.sinkAttach(core.AttachmentResponse, core.ContentTypeJSON, indent(resp.Body))
	} else {
		c.sinkAttach(core.AttachmentResponse, core.ContentTypeText, resp.Body)
	}
	c.sinkAttach(core.AttachmentCurl, core.ContentTypeText, []byte(Curl(resp)))
}

func (c *Client) sinkAttach(name, ct string, body []byte) {
	if err := c.sink.Attach(name, ct, body); err != nil {
		logger.Warn("attach %s: %v", name, err)
	}
}

// Curl renders the exchange's request as a curl command.
func Curl(resp *Response) string {
	cmd := fmt.Sprintf("curl -X %s '%s'", resp.Method, resp.URL)
	if len(resp.RequestBody) > 0 {
		cmd += fmt.Sprintf(" -H 'Content-Type: application/json' -d '%s'", resp.RequestBody)
	}
	return cmd
}

// marshal encodes v without HTML escaping so Cyrillic and ampersands stay readable.
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalIndent(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func indent(data []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return data
	}
	return buf.Bytes()
}

// flatten turns query values into a map with single values unwrapped.
func flatten(q url.Values) map[string]interface{} {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]interface{}, len(q))
	for _, k := range keys {
		if vs := q[k]; len(vs) == 1 {
			out[k] = vs[0]
		} else {
			out[k] = vs
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
