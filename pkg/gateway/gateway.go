// Package gateway is the single chokepoint for backend calls.
//
// Every call goes through Call, which attaches the session token, unwraps the
// {code, message, data} envelope, and classifies failures:
//
//	env, err := gw.Call(ctx, gateway.Request{
//	    Path:         "/order/my",
//	    Method:       http.MethodGet,
//	    Payload:      map[string]any{"page": 1},
//	    RequiresAuth: true,
//	})
//	if gateway.IsUnauthorized(err) { ... } // session already cleared
//
// Calls are never retried. Each failure is announced exactly once on the
// event bus; a burst of 401s clears the session and asks for login once.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/canteen/pkg/event"
	chttp "github.com/shashiranjanraj/canteen/pkg/http"
	"github.com/shashiranjanraj/canteen/pkg/logger"
	"github.com/shashiranjanraj/canteen/pkg/metrics"
	"github.com/shashiranjanraj/canteen/pkg/reqid"
	"github.com/shashiranjanraj/canteen/pkg/session"
	"github.com/shashiranjanraj/canteen/pkg/workerpool"
)

// Request describes one backend call. Payload is a map or a struct; GET sends
// it as the query string, other methods as a JSON body.
type Request struct {
	Path         string
	Method       string
	Payload      interface{}
	RequiresAuth bool
}

// Envelope is the uniform response wrapper. Code 200 is the only success
// marker.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Page is the data of every paginated list endpoint.
type Page[T any] struct {
	List     []T `json:"list"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Options wires a Gateway.
type Options struct {
	BaseURL     string
	TokenHeader string
	Client      *chttp.Client
	Session     *session.Store
	Bus         *event.Bus
	Pool        *workerpool.Pool
}

// Gateway is safe for concurrent use.
type Gateway struct {
	baseURL     string
	tokenHeader string
	client      *chttp.Client
	session     *session.Store
	bus         *event.Bus
	pool        *workerpool.Pool

	// guardMu/armed make the 401 side effects run once per signed-in
	// session. Setting a new token re-arms the guard.
	guardMu sync.Mutex
	armed   bool
}

// New builds a Gateway. Session is required.
func New(opts Options) *Gateway {
	if opts.Client == nil {
		opts.Client = chttp.NewClient(nil, 0)
	}
	if opts.TokenHeader == "" {
		opts.TokenHeader = "token"
	}
	g := &Gateway{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		tokenHeader: opts.TokenHeader,
		client:      opts.Client,
		session:     opts.Session,
		bus:         opts.Bus,
		pool:        opts.Pool,
		armed:       true,
	}
	g.session.OnChange(func(authenticated bool) {
		if authenticated {
			g.guardMu.Lock()
			g.armed = true
			g.guardMu.Unlock()
		}
	})
	return g
}

// Session returns the session the gateway authenticates with.
func (g *Gateway) Session() *session.Store { return g.session }

// Bus returns the notification channel, possibly nil.
func (g *Gateway) Bus() *event.Bus { return g.bus }

// Call performs req once.
func (g *Gateway) Call(ctx context.Context, req Request) (Envelope, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	tmpl := pathTemplate(req.Path)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		metrics.GatewayCalls.WithLabelValues(method, tmpl, "invalid").Inc()
		return Envelope{}, fmt.Errorf("%w: %q", ErrInvalidMethod, req.Method)
	}

	ctx, id := reqid.Ensure(ctx)
	log := logger.WithCtx(ctx).With("request_id", id, "method", method, "path", req.Path)
	ctx = logger.InjectLogger(ctx, log)

	start := time.Now()
	metrics.GatewayInFlight.Inc()
	env, sentToken, err := g.send(ctx, method, req)
	metrics.GatewayInFlight.Dec()

	if err != nil {
		f := err.(*Failure)
		metrics.ObserveCall(method, tmpl, f.Kind.String(), start)
		log.Warn("gateway: call failed", "kind", f.Kind.String(), "status", f.Status, "message", f.Message, "error", f.Err)
		g.announce(ctx, f, sentToken)
		return Envelope{}, f
	}

	metrics.ObserveCall(method, tmpl, "ok", start)
	log.Debug("gateway: call ok", "duration", time.Since(start))
	return env, nil
}

// send returns a *Failure on every error path.
func (g *Gateway) send(ctx context.Context, method string, req Request) (Envelope, string, error) {
	r := g.client.NewRequest(method, g.baseURL+req.Path).WithContext(ctx)

	var token string
	if req.RequiresAuth {
		if token = g.session.Token(); token != "" {
			r.Header(g.tokenHeader, token)
		}
	}

	if req.Payload != nil {
		if method == http.MethodGet {
			q, err := queryValues(req.Payload)
			if err != nil {
				return Envelope{}, token, &Failure{Kind: NetworkError, Message: MsgNetwork, Err: err}
			}
			r.Query(q)
		} else {
			r.Body(req.Payload)
		}
	}

	resp, err := r.Send()
	if err != nil {
		return Envelope{}, token, &Failure{Kind: NetworkError, Message: MsgNetwork, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return Envelope{}, token, &Failure{Kind: Unauthorized, Message: MsgLoginRequired, Status: resp.StatusCode}
	default:
		return Envelope{}, token, &Failure{Kind: NetworkError, Message: MsgNetwork, Status: resp.StatusCode}
	}

	var env Envelope
	if err := resp.JSON(&env); err != nil {
		return Envelope{}, token, &Failure{Kind: NetworkError, Message: MsgNetwork, Status: resp.StatusCode, Err: err}
	}
	if env.Code != 200 {
		msg := env.Message
		if msg == "" {
			msg = MsgRequestFailed
		}
		return Envelope{}, token, &Failure{Kind: ApplicationError, Message: msg, Status: resp.StatusCode, Code: env.Code}
	}
	return env, token, nil
}

// announce performs the side effects of a failure: one toast, and for 401
// the session reset plus login redirect.
func (g *Gateway) announce(ctx context.Context, f *Failure, sentToken string) {
	if f.Kind != Unauthorized {
		g.bus.Toast(event.Error, f.Message)
		return
	}

	if !g.invalidate(ctx, sentToken) {
		return
	}
	metrics.SessionInvalidations.Inc()
	g.bus.Toast(event.Error, f.Message)
	g.bus.Fire(event.LoginRequired, nil)
}

// invalidate clears the session for a 401 and reports whether this caller
// owns the redirect. guardMu is held across the compare-and-clear so a login
// landing in between re-arms only after this 401 is settled.
func (g *Gateway) invalidate(ctx context.Context, sentToken string) bool {
	g.guardMu.Lock()
	defer g.guardMu.Unlock()

	if sentToken != "" {
		// A 401 for a token that has since been replaced says nothing about
		// the current session.
		cleared, err := g.session.ClearIf(sentToken)
		if err != nil {
			logger.WithCtx(ctx).Error("gateway: clear session", "error", err)
		}
		if !cleared {
			logger.WithCtx(ctx).Debug("gateway: stale 401 ignored")
			return false
		}
	} else {
		if !g.armed {
			return false
		}
		if err := g.session.Clear(); err != nil {
			logger.WithCtx(ctx).Error("gateway: clear session", "error", err)
		}
	}
	g.armed = false
	return true
}

// Decode unmarshals env.Data into T. Absent or null data yields the zero T.
func Decode[T any](env Envelope) (T, error) {
	var out T
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("gateway: decode data: %w", err)
	}
	return out, nil
}

// queryValues flattens a map or struct payload into query parameters. Nil
// values are skipped; nested objects are rejected.
func queryValues(payload interface{}) (url.Values, error) {
	if v, ok := payload.(url.Values); ok {
		return v, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: encode query: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("gateway: query payload must be an object: %w", err)
	}

	q := url.Values{}
	for k, v := range m {
		switch val := v.(type) {
		case nil:
		case string:
			q.Set(k, val)
		case json.Number:
			q.Set(k, val.String())
		case bool:
			q.Set(k, strconv.FormatBool(val))
		default:
			return nil, fmt.Errorf("gateway: query field %q is not a scalar", k)
		}
	}
	return q, nil
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// pathTemplate collapses numeric path segments so metrics stay low-cardinality.
func pathTemplate(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	for numericSegment.MatchString(p) {
		p = numericSegment.ReplaceAllString(p, "/{id}$1")
	}
	return p
}
