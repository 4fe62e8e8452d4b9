package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/canteen/pkg/gateway"
	chttp "github.com/shashiranjanraj/canteen/pkg/http"
	"github.com/shashiranjanraj/canteen/pkg/session"
	"github.com/shashiranjanraj/canteen/pkg/stats"
	"github.com/shashiranjanraj/canteen/pkg/storage"
	"github.com/shashiranjanraj/canteen/pkg/testkit"
)

func TestOverviewFromMock(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "/statistics/overview").Envelope(200, "success", map[string]interface{}{
		"user_count":        3,
		"order_count":       7,
		"today_order_count": 2,
		"total_sales":       "123.40",
		"today_sales":       18.5,
		"hot_dishes": []map[string]interface{}{
			{"id": 4, "name": "Fried rice", "price": "12.50", "sales": 9},
		},
	})

	sess, err := session.Open(storage.NewMemory())
	require.NoError(t, err)
	require.NoError(t, sess.Set("admin-token", &session.User{ID: 1, Role: session.Admin}))
	gw := gateway.New(gateway.Options{
		BaseURL: "http://backend.test/api",
		Client:  chttp.NewClient(mt, time.Second),
		Session: sess,
	})

	ov, err := stats.New(gw).Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ov.UserCount)
	assert.Equal(t, 7, ov.OrderCount)
	assert.Equal(t, 2, ov.TodayOrderCount)
	assert.Equal(t, "123.40", ov.TotalSales.StringFixed(2))
	assert.Equal(t, "18.50", ov.TodaySales.StringFixed(2))
	require.Len(t, ov.HotDishes, 1)
	assert.Equal(t, "Fried rice", ov.HotDishes[0].Name)

	assert.Equal(t, "admin-token", mt.LastCall(t).Header.Get("token"))
}

func TestOverviewAdminOnly(t *testing.T) {
	be := testkit.NewBackend(t)
	id := be.AddUser("alice", "secret", "user")

	sess, err := session.Open(storage.NewMemory())
	require.NoError(t, err)
	require.NoError(t, sess.Set(be.TokenFor(id), &session.User{ID: id}))
	gw := gateway.New(gateway.Options{
		BaseURL: be.URL(),
		Client:  chttp.NewClient(be.Client().Transport, 5*time.Second),
		Session: sess,
	})

	_, err = stats.New(gw).Overview(context.Background())
	kind, _ := gateway.KindOf(err)
	assert.Equal(t, gateway.ApplicationError, kind)
	assert.Equal(t, "admin only", gateway.Message(err))
}
