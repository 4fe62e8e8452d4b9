package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/shashiranjanraj/canteen/pkg/response"
)

// ─── MockTransport ────────────────────────────────────────────────────────────

// MockTransport implements http.RoundTripper.
// It matches outgoing requests against registered routes and returns synthetic
// responses instead of making real network calls.
//
// Hand it to the client under test:
//
//	mt := testkit.NewMockTransport()
//	mt.On("GET", "/dish/list").Envelope(200, "success", page)
//	c := http.NewClient(mt, 0)
//	// ... run test ...
//	mt.AssertAllCalled(t)
type MockTransport struct {
	mu      sync.Mutex
	routes  []*Route
	calls   []RecordedCall
	Require bool // fail unmatched calls instead of answering 404
}

// Route is one stubbed endpoint.
type Route struct {
	method string // "" matches any method
	path   string // suffix of the URL path; "" matches any path
	status int
	body   []byte
	err    error
	gate   <-chan struct{}
	hits   int
}

// RecordedCall is a snapshot of one intercepted request.
type RecordedCall struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// NewMockTransport returns a transport with no routes.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// On registers a route. Later registrations for the same request win.
func (mt *MockTransport) On(method, path string) *Route {
	r := &Route{method: strings.ToUpper(method), path: path, status: http.StatusOK}
	mt.mu.Lock()
	mt.routes = append(mt.routes, r)
	mt.mu.Unlock()
	return r
}

// Reply answers with status and a raw body.
func (r *Route) Reply(status int, body string) *Route {
	r.status = status
	r.body = []byte(body)
	return r
}

// Envelope answers HTTP 200 with a {code, message, data} envelope.
func (r *Route) Envelope(code int, message string, data interface{}) *Route {
	raw, err := response.Marshal(code, message, data)
	if err != nil {
		panic(fmt.Sprintf("testkit: marshal envelope: %v", err))
	}
	r.status = http.StatusOK
	r.body = raw
	return r
}

// Fail makes the round trip itself fail with err.
func (r *Route) Fail(err error) *Route {
	r.err = err
	return r
}

// Gate holds the response until ch is closed.
func (r *Route) Gate(ch <-chan struct{}) *Route {
	r.gate = ch
	return r
}

// RoundTrip intercepts the outgoing request and returns a synthetic response.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	mt.calls = append(mt.calls, RecordedCall{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
		Header: req.Header.Clone(),
		Body:   body,
	})
	var match *Route
	for i := len(mt.routes) - 1; i >= 0; i-- {
		r := mt.routes[i]
		if r.matches(req) {
			r.hits++
			match = r
			break
		}
	}
	require := mt.Require
	mt.mu.Unlock()

	if match == nil {
		if require {
			return nil, fmt.Errorf("testkit: unexpected outgoing HTTP call %s %s, no matching route", req.Method, req.URL)
		}
		return respond(req, http.StatusNotFound, []byte(`{"detail":"no mock configured"}`)), nil
	}

	if match.gate != nil {
		select {
		case <-match.gate:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
	if match.err != nil {
		return nil, match.err
	}
	return respond(req, match.status, match.body), nil
}

func (r *Route) matches(req *http.Request) bool {
	if r.method != "" && r.method != req.Method {
		return false
	}
	return r.path == "" || strings.HasSuffix(req.URL.Path, r.path)
}

// Calls returns every intercepted request in order.
func (mt *MockTransport) Calls() []RecordedCall {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	out := make([]RecordedCall, len(mt.calls))
	copy(out, mt.calls)
	return out
}

// CallCount returns how many requests reached the transport.
func (mt *MockTransport) CallCount() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return len(mt.calls)
}

// LastCall returns the most recent request. It fails t when there is none.
func (mt *MockTransport) LastCall(t *testing.T) RecordedCall {
	t.Helper()
	calls := mt.Calls()
	if len(calls) == 0 {
		t.Fatal("testkit: no outgoing call was made")
	}
	return calls[len(calls)-1]
}

// AssertAllCalled fails t for every route that was never hit.
func (mt *MockTransport) AssertAllCalled(t *testing.T) {
	t.Helper()
	mt.mu.Lock()
	defer mt.mu.Unlock()
	for _, r := range mt.routes {
		if r.hits == 0 {
			t.Errorf("testkit: route %s %q was never called", r.method, r.path)
		}
	}
}

func respond(req *http.Request, code int, body []byte) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
}
