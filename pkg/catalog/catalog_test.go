package catalog_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/canteen/pkg/cache"
	"github.com/shashiranjanraj/canteen/pkg/catalog"
	"github.com/shashiranjanraj/canteen/pkg/gateway"
	chttp "github.com/shashiranjanraj/canteen/pkg/http"
	"github.com/shashiranjanraj/canteen/pkg/metrics"
	"github.com/shashiranjanraj/canteen/pkg/session"
	"github.com/shashiranjanraj/canteen/pkg/storage"
	"github.com/shashiranjanraj/canteen/pkg/testkit"
	"github.com/shashiranjanraj/canteen/pkg/validate"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	be     *testkit.Backend
	gw     *gateway.Gateway
	shared *cache.Memory
	sess   *session.Store
	clock  *clock
	cat    *catalog.Catalog
	mains  int64
	rice   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	be := testkit.NewBackend(t)
	sess, err := session.Open(storage.NewMemory())
	require.NoError(t, err)

	clk := &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	gw := gateway.New(gateway.Options{
		BaseURL: be.URL(),
		Client:  chttp.NewClient(be.Client().Transport, 5*time.Second),
		Session: sess,
	})

	shared := cache.NewMemory().WithClock(clk.Now)
	f := &fixture{
		be:     be,
		gw:     gw,
		shared: shared,
		sess:   sess,
		clock:  clk,
		cat:    catalog.New(gw, shared, time.Minute),
	}
	f.mains = be.AddCategory("Mains", 2)
	be.AddCategory("Drinks", 1)
	f.rice = be.AddDish(f.mains, "Fried rice", "12.50")
	return f
}

func (f *fixture) signInAdmin(t *testing.T) {
	id := f.be.AddUser("boss", "secret", "admin")
	require.NoError(t, f.sess.Set(f.be.TokenFor(id), &session.User{ID: id, Role: session.Admin}))
}

func TestCategoriesReadThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hits := testutil.ToFloat64(metrics.CatalogLookups.WithLabelValues("categories", "cache"))

	cats, err := f.cat.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Drinks", cats[0].Name, "menu order")

	_, err = f.cat.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.be.Hits("GET /api/category/list"))
	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.CatalogLookups.WithLabelValues("categories", "cache")))

	f.clock.Advance(time.Minute)
	_, err = f.cat.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.be.Hits("GET /api/category/list"), "refetched after TTL")
}

func TestDishesByCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soups := f.be.AddCategory("Soups", 3)
	f.be.AddDish(soups, "Miso", "4.00")

	dishes, err := f.cat.Dishes(ctx, f.mains)
	require.NoError(t, err)
	require.Len(t, dishes, 1)
	assert.Equal(t, "Fried rice", dishes[0].Name)
	assert.Equal(t, "Mains", dishes[0].CategoryName)
	assert.True(t, decimal.RequireFromString("12.5").Equal(dishes[0].Price))

	all, err := f.cat.Dishes(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	item := dishes[0].Item()
	assert.Equal(t, f.rice, item.ID)
	assert.Equal(t, "12.5", item.Price.String())
}

func TestDishesFollowsPages(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 130; i++ {
		f.be.AddDish(f.mains, "Dumpling", "1.00")
	}

	dishes, err := f.cat.Dishes(context.Background(), f.mains)
	require.NoError(t, err)
	assert.Len(t, dishes, 131)
	assert.Equal(t, 2, f.be.Hits("GET /api/dish/list"))
}

func TestDishDetail(t *testing.T) {
	f := newFixture(t)

	d, err := f.cat.Dish(context.Background(), f.rice)
	require.NoError(t, err)
	assert.Equal(t, "Fried rice", d.Name)

	_, err = f.cat.Dish(context.Background(), 9999)
	assert.Equal(t, "dish not found", gateway.Message(err))
}

func TestAdminWritesInvalidate(t *testing.T) {
	f := newFixture(t)
	f.signInAdmin(t)
	ctx := context.Background()

	before, err := f.cat.Dishes(ctx, f.mains)
	require.NoError(t, err)
	require.Len(t, before, 1)

	id, err := f.cat.CreateDish(ctx, catalog.DishInput{
		CategoryID: f.mains,
		Name:       "Noodles",
		Price:      decimal.RequireFromString("9.90"),
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	after, err := f.cat.Dishes(ctx, f.mains)
	require.NoError(t, err)
	assert.Len(t, after, 2, "create dropped the cached list")

	off := 0
	require.NoError(t, f.cat.UpdateDish(ctx, id, catalog.DishPatch{Status: &off}))
	after, err = f.cat.Dishes(ctx, f.mains)
	require.NoError(t, err)
	assert.Len(t, after, 1, "off-sale dish hidden")

	require.NoError(t, f.cat.DeleteDish(ctx, f.rice))
	after, err = f.cat.Dishes(ctx, f.mains)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestUpdateDishPrice(t *testing.T) {
	f := newFixture(t)
	f.signInAdmin(t)
	ctx := context.Background()

	price := decimal.RequireFromString("15.00")
	require.NoError(t, f.cat.UpdateDish(ctx, f.rice, catalog.DishPatch{Price: &price}))

	d, err := f.cat.Dish(ctx, f.rice)
	require.NoError(t, err)
	assert.Equal(t, "15.00", d.Price.StringFixed(2))
	assert.Equal(t, "Fried rice", d.Name, "untouched fields kept")
}

func TestCreateDishValidation(t *testing.T) {
	f := newFixture(t)
	f.signInAdmin(t)

	_, err := f.cat.CreateDish(context.Background(), catalog.DishInput{
		Name:  "Noodles",
		Price: decimal.RequireFromString("-1"),
	})
	var verrs validate.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "category_id")
	assert.Contains(t, verrs, "price")
	assert.Zero(t, f.be.Hits("POST /api/dish/create"))
}

func TestCustomerCannotWrite(t *testing.T) {
	f := newFixture(t)
	id := f.be.AddUser("alice", "secret", "user")
	require.NoError(t, f.sess.Set(f.be.TokenFor(id), &session.User{ID: id}))

	err := f.cat.DeleteDish(context.Background(), f.rice)
	kind, _ := gateway.KindOf(err)
	assert.Equal(t, gateway.ApplicationError, kind)
	assert.Equal(t, "admin only", gateway.Message(err))
}

func TestInvalidateForcesRefetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cat.Dishes(ctx, f.mains)
	require.NoError(t, err)
	require.NoError(t, f.cat.Invalidate(ctx))
	_, err = f.cat.Dishes(ctx, f.mains)
	require.NoError(t, err)
	assert.Equal(t, 2, f.be.Hits("GET /api/dish/list"))
}

func TestWriteInvalidatesListsCachedByOtherClients(t *testing.T) {
	f := newFixture(t)
	f.signInAdmin(t)
	ctx := context.Background()

	// Another client process warmed the shared cache.
	reader := catalog.New(f.gw, f.shared, time.Minute)
	before, err := reader.Dishes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, before, 1)
	_, err = reader.Dishes(ctx, f.mains)
	require.NoError(t, err)

	_, err = f.cat.CreateDish(ctx, catalog.DishInput{
		CategoryID: f.mains,
		Name:       "Noodles",
		Price:      decimal.RequireFromString("9.90"),
	})
	require.NoError(t, err)

	fresh := catalog.New(f.gw, f.shared, time.Minute)
	all, err := fresh.Dishes(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	mains, err := fresh.Dishes(ctx, f.mains)
	require.NoError(t, err)
	assert.Len(t, mains, 2)
}
