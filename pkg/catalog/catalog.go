// Package catalog serves categories and dishes through a read-through cache.
//
// Reads are anonymous and only see on-sale entries (status=1). A miss fetches
// from the backend and stores the result for the configured TTL; admin writes
// drop every cached list so the next read refetches.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/canteen/pkg/cache"
	"github.com/shashiranjanraj/canteen/pkg/cart"
	"github.com/shashiranjanraj/canteen/pkg/gateway"
	"github.com/shashiranjanraj/canteen/pkg/logger"
	"github.com/shashiranjanraj/canteen/pkg/metrics"
	"github.com/shashiranjanraj/canteen/pkg/validate"
)

const (
	keyPrefix     = "catalog:"
	keyCategories = keyPrefix + "categories"
	keyDishes     = keyPrefix + "dishes:%d"

	// OnSale is the status of a visible category or dish.
	OnSale = 1

	pageSize = 100
)

// Category groups dishes on the menu.
type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	Status    int    `json:"status"`
}

// Dish is one menu entry.
type Dish struct {
	ID           int64           `json:"id"`
	CategoryID   int64           `json:"category_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url"`
	Status       int             `json:"status"`
	SortOrder    int             `json:"sort_order"`
	Sales        int             `json:"sales"`
	CategoryName string          `json:"category_name"`
}

// Item snapshots the dish for the cart. The cart keeps this price even if
// the dish is repriced later.
func (d Dish) Item() cart.Item {
	return cart.Item{ID: d.ID, Name: d.Name, Price: d.Price}
}

// Catalog is safe for concurrent use.
type Catalog struct {
	gw    *gateway.Gateway
	cache cache.Cache
	ttl   time.Duration
}

// New returns a Catalog caching through c for ttl.
func New(gw *gateway.Gateway, c cache.Cache, ttl time.Duration) *Catalog {
	return &Catalog{gw: gw, cache: c, ttl: ttl}
}

// Categories returns the on-sale categories in menu order.
func (c *Catalog) Categories(ctx context.Context) ([]Category, error) {
	return readThrough(ctx, c, "categories", keyCategories, func() ([]Category, error) {
		env, err := c.gw.Call(ctx, gateway.Request{
			Path:    "/category/list",
			Method:  http.MethodGet,
			Payload: map[string]int{"status": OnSale},
		})
		if err != nil {
			return nil, err
		}
		return gateway.Decode[[]Category](env)
	})
}

// Dishes returns the on-sale dishes of a category, or of every category when
// categoryID is 0.
func (c *Catalog) Dishes(ctx context.Context, categoryID int64) ([]Dish, error) {
	return readThrough(ctx, c, "dishes", fmt.Sprintf(keyDishes, categoryID), func() ([]Dish, error) {
		var all []Dish
		for p := 1; ; p++ {
			q := map[string]interface{}{"status": OnSale, "page": p, "page_size": pageSize}
			if categoryID != 0 {
				q["category_id"] = categoryID
			}
			env, err := c.gw.Call(ctx, gateway.Request{Path: "/dish/list", Method: http.MethodGet, Payload: q})
			if err != nil {
				return nil, err
			}
			page, err := gateway.Decode[gateway.Page[Dish]](env)
			if err != nil {
				return nil, err
			}
			all = append(all, page.List...)
			if len(page.List) == 0 || len(all) >= page.Total {
				return all, nil
			}
		}
	})
}

// Dish fetches a single dish. Details are not cached.
func (c *Catalog) Dish(ctx context.Context, id int64) (Dish, error) {
	metrics.CatalogLookups.WithLabelValues("dish", "backend").Inc()
	env, err := c.gw.Call(ctx, gateway.Request{
		Path:   fmt.Sprintf("/dish/%d", id),
		Method: http.MethodGet,
	})
	if err != nil {
		return Dish{}, err
	}
	return gateway.Decode[Dish](env)
}

// Invalidate drops every cached list, whichever client cached it.
func (c *Catalog) Invalidate(ctx context.Context) error {
	if err := c.cache.DelPrefix(ctx, keyPrefix); err != nil {
		return fmt.Errorf("catalog: invalidate: %w", err)
	}
	return nil
}

func readThrough[T any](ctx context.Context, c *Catalog, resource, key string, fetch func() (T, error)) (T, error) {
	var out T
	if c.cache.Get(ctx, key, &out) {
		metrics.CatalogLookups.WithLabelValues(resource, "cache").Inc()
		return out, nil
	}
	metrics.CatalogLookups.WithLabelValues(resource, "backend").Inc()

	out, err := fetch()
	if err != nil {
		return out, err
	}
	if err := c.cache.Set(ctx, key, out, c.ttl); err != nil {
		// A cache outage degrades to uncached reads.
		logger.WithCtx(ctx).Warn("catalog: cache set failed", "key", key, "error", err)
	}
	return out, nil
}

// ------------------- Admin -------------------

// DishInput is the payload of CreateDish. A nil Status lets the backend put
// the dish on sale.
type DishInput struct {
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
	Name        string          `json:"name"        validate:"required,max=50"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"       validate:"gte=0,lte=99999,scale=2"`
	ImageURL    string          `json:"image_url"   validate:"nullable,url"`
	Status      *int            `json:"status"      validate:"in=0|1"`
	SortOrder   int             `json:"sort_order"  validate:"gte=0"`
}

// DishPatch is the payload of UpdateDish. Nil fields are left unchanged.
type DishPatch struct {
	CategoryID  *int64           `json:"category_id,omitempty" validate:"gt=0"`
	Name        *string          `json:"name,omitempty"        validate:"min=1,max=50"`
	Description *string          `json:"description,omitempty" validate:"max=500"`
	Price       *decimal.Decimal `json:"price,omitempty"       validate:"gte=0,lte=99999,scale=2"`
	ImageURL    *string          `json:"image_url,omitempty"   validate:"nullable,url"`
	Status      *int             `json:"status,omitempty"      validate:"in=0|1"`
	SortOrder   *int             `json:"sort_order,omitempty"  validate:"gte=0"`
}

// wirePrice sends decimals as JSON numbers, never floats.
func wirePrice(d decimal.Decimal) json.Number { return json.Number(d.String()) }

func (in DishInput) body() map[string]interface{} {
	m := map[string]interface{}{
		"category_id": in.CategoryID,
		"name":        in.Name,
		"description": in.Description,
		"price":       wirePrice(in.Price),
		"image_url":   in.ImageURL,
		"sort_order":  in.SortOrder,
	}
	if in.Status != nil {
		m["status"] = *in.Status
	}
	return m
}

func (p DishPatch) body() map[string]interface{} {
	m := map[string]interface{}{}
	if p.CategoryID != nil {
		m["category_id"] = *p.CategoryID
	}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Price != nil {
		m["price"] = wirePrice(*p.Price)
	}
	if p.ImageURL != nil {
		m["image_url"] = *p.ImageURL
	}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	if p.SortOrder != nil {
		m["sort_order"] = *p.SortOrder
	}
	return m
}

// CreateDish adds a dish and returns its id.
func (c *Catalog) CreateDish(ctx context.Context, in DishInput) (int64, error) {
	if err := validate.Check(in); err != nil {
		return 0, err
	}
	env, err := c.gw.Call(ctx, gateway.Request{
		Path:         "/dish/create",
		Method:       http.MethodPost,
		Payload:      in.body(),
		RequiresAuth: true,
	})
	if err != nil {
		return 0, err
	}
	created, err := gateway.Decode[struct {
		ID int64 `json:"id"`
	}](env)
	if err != nil {
		return 0, err
	}
	c.invalidateAfterWrite(ctx)
	return created.ID, nil
}

// UpdateDish changes the given fields of a dish.
func (c *Catalog) UpdateDish(ctx context.Context, id int64, p DishPatch) error {
	if err := validate.Check(p); err != nil {
		return err
	}
	if _, err := c.gw.Call(ctx, gateway.Request{
		Path:         fmt.Sprintf("/dish/%d", id),
		Method:       http.MethodPut,
		Payload:      p.body(),
		RequiresAuth: true,
	}); err != nil {
		return err
	}
	c.invalidateAfterWrite(ctx)
	return nil
}

// DeleteDish removes a dish.
func (c *Catalog) DeleteDish(ctx context.Context, id int64) error {
	if _, err := c.gw.Call(ctx, gateway.Request{
		Path:         fmt.Sprintf("/dish/%d", id),
		Method:       http.MethodDelete,
		RequiresAuth: true,
	}); err != nil {
		return err
	}
	c.invalidateAfterWrite(ctx)
	return nil
}

// invalidateAfterWrite never fails the write that already succeeded.
func (c *Catalog) invalidateAfterWrite(ctx context.Context) {
	if err := c.Invalidate(ctx); err != nil {
		logger.WithCtx(ctx).Warn("catalog: stale lists may be served until TTL", "error", err)
	}
}
