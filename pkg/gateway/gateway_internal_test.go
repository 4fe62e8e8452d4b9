package gateway

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/canteen/pkg/session"
	"github.com/shashiranjanraj/canteen/pkg/storage"
)

func TestPathTemplate(t *testing.T) {
	cases := map[string]string{
		"/order/12/status": "/order/{id}/status",
		"/dish/7":          "/dish/{id}",
		"/dish/list":       "/dish/list",
		"/a/1/2":           "/a/{id}/{id}",
		"/order/my?page=2": "/order/my",
	}
	for in, want := range cases {
		assert.Equal(t, want, pathTemplate(in), in)
	}
}

func TestQueryValues(t *testing.T) {
	type q struct {
		Status   int    `json:"status,omitempty"`
		Category int64  `json:"category_id,omitempty"`
		Name     string `json:"name"`
	}
	got, err := queryValues(q{Status: 1, Name: "rice"})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"status": {"1"}, "name": {"rice"}}, got)

	_, err = queryValues(map[string]interface{}{"nested": map[string]int{"a": 1}})
	assert.Error(t, err)

	_, err = queryValues([]int{1})
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "network", NetworkError.String())
	assert.Equal(t, "application", ApplicationError.String())
	assert.Equal(t, "unauthorized", Unauthorized.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestInvalidateNeverClearsNewerLogin(t *testing.T) {
	sess, err := session.Open(storage.NewMemory())
	require.NoError(t, err)
	g := New(Options{Session: sess})
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		require.NoError(t, sess.Set("old", nil))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.invalidate(ctx, "old")
		}()
		go func() {
			defer wg.Done()
			_ = sess.Set("new", nil)
		}()
		wg.Wait()

		require.Equal(t, "new", sess.Token(), "iteration %d", i)
		g.guardMu.Lock()
		armed := g.armed
		g.guardMu.Unlock()
		require.True(t, armed, "new session keeps its redirect, iteration %d", i)
	}
}

func TestInvalidateOncePerToken(t *testing.T) {
	sess, err := session.Open(storage.NewMemory())
	require.NoError(t, err)
	g := New(Options{Session: sess})
	ctx := context.Background()

	require.NoError(t, sess.Set("tok", nil))
	assert.True(t, g.invalidate(ctx, "tok"))
	assert.False(t, g.invalidate(ctx, "tok"))
	assert.False(t, g.invalidate(ctx, ""), "guard stays spent until the next login")
}
