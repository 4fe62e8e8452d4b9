package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/canteen/pkg/event"
	"github.com/shashiranjanraj/canteen/pkg/gateway"
	chttp "github.com/shashiranjanraj/canteen/pkg/http"
	"github.com/shashiranjanraj/canteen/pkg/session"
	"github.com/shashiranjanraj/canteen/pkg/storage"
	"github.com/shashiranjanraj/canteen/pkg/testkit"
	"github.com/shashiranjanraj/canteen/pkg/workerpool"
)

type fixture struct {
	gw        *gateway.Gateway
	sess      *session.Store
	mt        *testkit.MockTransport
	mu        sync.Mutex
	toasts    []string
	redirects atomic.Int32
}

func newFixture(t *testing.T, mt *testkit.MockTransport, pool *workerpool.Pool) *fixture {
	t.Helper()
	sess, err := session.Open(storage.NewMemory())
	require.NoError(t, err)

	f := &fixture{sess: sess, mt: mt}
	bus := event.NewBus()
	bus.Listen(event.Notify, func(p interface{}) {
		f.mu.Lock()
		f.toasts = append(f.toasts, p.(event.Toast).Message)
		f.mu.Unlock()
	})
	bus.Listen(event.LoginRequired, func(interface{}) { f.redirects.Add(1) })

	f.gw = gateway.New(gateway.Options{
		BaseURL:     "http://backend.test/api",
		TokenHeader: "token",
		Client:      chttp.NewClient(mt, 5*time.Second),
		Session:     sess,
		Bus:         bus,
		Pool:        pool,
	})
	return f
}

func (f *fixture) Toasts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.toasts...)
}

func TestScenarios(t *testing.T) {
	testkit.RunScenarios(t, "testdata/gateway_scenarios.json", func(t *testing.T, s *testkit.Scenario) {
		mt := s.Transport()
		f := newFixture(t, mt, nil)
		if s.Token != "" {
			require.NoError(t, f.sess.Set(s.Token, &session.User{ID: 1, Username: "alice"}))
		}

		env, err := f.gw.Call(context.Background(), gateway.Request{
			Path:         s.Request.Path,
			Method:       s.Request.Method,
			Payload:      payload(s.Request.Payload),
			RequiresAuth: s.Request.RequiresAuth,
		})

		switch s.Expect.Kind {
		case "":
			require.NoError(t, err)
			assert.Equal(t, 200, env.Code)
			if len(s.Expect.Data) > 0 {
				assert.JSONEq(t, string(s.Expect.Data), string(env.Data))
			}
		case "invalid":
			assert.ErrorIs(t, err, gateway.ErrInvalidMethod)
		default:
			var fail *gateway.Failure
			require.ErrorAs(t, err, &fail)
			assert.Equal(t, s.Expect.Kind, fail.Kind.String())
			assert.Equal(t, s.Expect.Message, fail.Message)
		}

		if s.Expect.NoCall {
			assert.Zero(t, mt.CallCount())
		} else {
			require.Equal(t, 1, mt.CallCount(), "exactly one request, never retried")
			call := mt.LastCall(t)
			for k, v := range s.Expect.Headers {
				assert.Equal(t, v, call.Header.Get(k), "header %s", k)
			}
			for _, k := range s.Expect.AbsentHeaders {
				assert.Empty(t, call.Header.Get(k), "header %s", k)
			}
			assert.NotEmpty(t, call.Header.Get("X-Request-ID"))
			for k, v := range s.Expect.Query {
				assert.Equal(t, v, call.Query.Get(k), "query %s", k)
			}
			if s.Expect.Query != nil {
				assert.Len(t, call.Query, len(s.Expect.Query))
			}
			if len(s.Expect.Body) > 0 {
				assert.JSONEq(t, string(s.Expect.Body), string(call.Body))
			}
		}

		assert.Equal(t, s.Expect.SessionCleared, s.Token != "" && !f.sess.Authenticated())
		assert.EqualValues(t, s.Expect.LoginRedirects, f.redirects.Load())
		if s.Expect.Toasts == nil {
			assert.Empty(t, f.Toasts())
		} else {
			assert.Equal(t, s.Expect.Toasts, f.Toasts())
		}
	})
}

func payload(m map[string]interface{}) interface{} {
	if m == nil {
		return nil
	}
	return m
}

func TestConcurrent401_ClearsAndRedirectsOnce(t *testing.T) {
	mt := testkit.NewMockTransport()
	release := make(chan struct{})
	mt.On("GET", "").Reply(http.StatusUnauthorized, `{"detail":"expired"}`).Gate(release)

	f := newFixture(t, mt, workerpool.New(4))
	require.NoError(t, f.sess.Set("abc", &session.User{ID: 1}))

	ctx := context.Background()
	futures := make([]*gateway.Future, 4)
	for i := range futures {
		futures[i] = f.gw.Go(ctx, gateway.Request{Path: "/order/my", Method: "GET", RequiresAuth: true})
	}

	require.Eventually(t, func() bool { return mt.CallCount() == 4 }, 2*time.Second, 5*time.Millisecond,
		"all requests must carry the token before any 401 lands")
	close(release)

	for _, fut := range futures {
		_, err := fut.Wait(ctx)
		assert.True(t, gateway.IsUnauthorized(err))
	}

	assert.False(t, f.sess.Authenticated())
	assert.EqualValues(t, 1, f.redirects.Load())
	assert.Equal(t, []string{"please log in"}, f.Toasts())
}

func TestGuardRearmsAfterLogin(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "/order/my").Reply(http.StatusUnauthorized, "")

	f := newFixture(t, mt, nil)
	ctx := context.Background()
	req := gateway.Request{Path: "/order/my", Method: "GET", RequiresAuth: true}

	require.NoError(t, f.sess.Set("first", nil))
	_, _ = f.gw.Call(ctx, req)
	_, _ = f.gw.Call(ctx, req)
	assert.EqualValues(t, 1, f.redirects.Load())

	require.NoError(t, f.sess.Set("second", nil))
	_, _ = f.gw.Call(ctx, req)
	assert.EqualValues(t, 2, f.redirects.Load())
}

func TestStale401_KeepsNewSession(t *testing.T) {
	mt := testkit.NewMockTransport()
	release := make(chan struct{})
	mt.On("GET", "/order/my").Reply(http.StatusUnauthorized, "").Gate(release)

	f := newFixture(t, mt, nil)
	require.NoError(t, f.sess.Set("old", nil))

	ctx := context.Background()
	fut := f.gw.Go(ctx, gateway.Request{Path: "/order/my", Method: "GET", RequiresAuth: true})
	require.Eventually(t, func() bool { return mt.CallCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.sess.Set("new", nil))
	close(release)

	_, err := fut.Wait(ctx)
	assert.True(t, gateway.IsUnauthorized(err))
	assert.Equal(t, "new", f.sess.Token())
	assert.Zero(t, f.redirects.Load())
}

func TestGo_WaitGivesUpWithoutCancellingCall(t *testing.T) {
	mt := testkit.NewMockTransport()
	release := make(chan struct{})
	mt.On("GET", "/dish/list").Envelope(200, "success", []int{1, 2}).Gate(release)

	f := newFixture(t, mt, workerpool.New(1))

	fut := f.gw.Go(context.Background(), gateway.Request{Path: "/dish/list", Method: "GET"})

	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := fut.Wait(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	got, err := gateway.Await[[]int](context.Background(), fut)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestGo_ClosedPoolIsNetworkFailure(t *testing.T) {
	pool := workerpool.New(1)
	pool.Shutdown()
	f := newFixture(t, testkit.NewMockTransport(), pool)

	_, err := f.gw.Go(context.Background(), gateway.Request{Path: "/x", Method: "GET"}).Wait(context.Background())
	kind, ok := gateway.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, gateway.NetworkError, kind)
	assert.ErrorIs(t, err, workerpool.ErrPoolClosed)
}

func TestDecode(t *testing.T) {
	type user struct {
		ID int64 `json:"id"`
	}

	u, err := gateway.Decode[user](gateway.Envelope{Data: json.RawMessage(`{"id":3}`)})
	require.NoError(t, err)
	assert.EqualValues(t, 3, u.ID)

	u, err = gateway.Decode[user](gateway.Envelope{Data: json.RawMessage(`null`)})
	require.NoError(t, err)
	assert.Zero(t, u)

	_, err = gateway.Decode[user](gateway.Envelope{Data: json.RawMessage(`[1]`)})
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "out of stock", gateway.Message(&gateway.Failure{Kind: gateway.ApplicationError, Message: "out of stock"}))
	assert.Equal(t, "boom", gateway.Message(errors.New("boom")))
	assert.Empty(t, gateway.Message(nil))
}
