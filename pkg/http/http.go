// Package http provides the fluent outgoing HTTP client used by the gateway.
//
// Usage:
//
//	c := http.NewClient(http.DefaultTransport(), 15*time.Second)
//	resp, err := c.Get("http://localhost:8000/api/dish/list").
//	    Query(url.Values{"status": {"1"}}).
//	    Header("token", tok).
//	    WithContext(ctx).
//	    Send()
//
//	var env Envelope
//	err = resp.JSON(&env)
//
// Requests are sent exactly once. There is no retry loop: a failed call is
// reported to the caller, which decides whether a fresh user action should
// re-issue it.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shashiranjanraj/canteen/pkg/reqid"
)

// DefaultTransport returns a connection-pooled transport that stamps the
// request ID header on every call.
func DefaultTransport() gohttp.RoundTripper {
	return &reqid.Transport{Base: &gohttp.Transport{
		Proxy:               gohttp.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}}
}

// Traced wraps rt so each call produces an OpenTelemetry client span and
// propagates trace context to the backend.
func Traced(rt gohttp.RoundTripper) gohttp.RoundTripper {
	if rt == nil {
		rt = DefaultTransport()
	}
	return otelhttp.NewTransport(rt)
}

// ------------------- Client -------------------

// Client owns the underlying *http.Client. Build one per process and hand it
// to whoever needs to talk to the backend.
type Client struct {
	hc      *gohttp.Client
	timeout time.Duration
}

// NewClient builds a Client on rt. A zero timeout means no per-call limit
// beyond what the transport enforces.
func NewClient(rt gohttp.RoundTripper, timeout time.Duration) *Client {
	if rt == nil {
		rt = DefaultTransport()
	}
	return &Client{hc: &gohttp.Client{Transport: rt}, timeout: timeout}
}

// Get starts a GET request.
func (c *Client) Get(url string) *Request { return c.newRequest(gohttp.MethodGet, url) }

// NewRequest starts a request with an arbitrary method.
func (c *Client) NewRequest(method, url string) *Request { return c.newRequest(method, url) }

func (c *Client) newRequest(method, url string) *Request {
	return &Request{
		client:  c,
		method:  method,
		url:     url,
		headers: map[string]string{"Accept": "application/json"},
		timeout: c.timeout,
		ctx:     context.Background(),
	}
}

// ------------------- Request -------------------

// Request is a fluent HTTP request builder.
type Request struct {
	client  *Client
	method  string
	url     string
	query   url.Values
	headers map[string]string
	body    interface{}
	timeout time.Duration
	ctx     context.Context
}

// Header adds a single header to the request.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Query appends query-string parameters.
func (r *Request) Query(q url.Values) *Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	for k, vs := range q {
		for _, v := range vs {
			r.query.Add(k, v)
		}
	}
	return r
}

// Body sets the request body, sent as JSON.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// WithContext sets a custom context.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx != nil {
		r.ctx = ctx
	}
	return r
}

// ------------------- Send -------------------

// Send executes the request once and returns the Response. A non-nil error
// means no HTTP response was received at all.
func (r *Request) Send() (*Response, error) {
	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	ctx := r.ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	target := r.url
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := gohttp.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := r.client.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send %s %s: %w", r.method, r.url, err)
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Raw:        raw,
	}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	if r.body == nil {
		return nil, "", nil
	}
	b, err := json.Marshal(r.body)
	if err != nil {
		return nil, "", fmt.Errorf("http: marshal body: %w", err)
	}
	return bytes.NewReader(b), "application/json", nil
}

// ------------------- Response -------------------

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}
