// Package client assembles one canteen client: every store is built here
// and handed explicitly to the services that need it.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/shashiranjanraj/canteen/config"
	"github.com/shashiranjanraj/canteen/pkg/account"
	"github.com/shashiranjanraj/canteen/pkg/cache"
	"github.com/shashiranjanraj/canteen/pkg/cart"
	"github.com/shashiranjanraj/canteen/pkg/catalog"
	"github.com/shashiranjanraj/canteen/pkg/event"
	"github.com/shashiranjanraj/canteen/pkg/gateway"
	chttp "github.com/shashiranjanraj/canteen/pkg/http"
	"github.com/shashiranjanraj/canteen/pkg/logger"
	"github.com/shashiranjanraj/canteen/pkg/order"
	"github.com/shashiranjanraj/canteen/pkg/session"
	"github.com/shashiranjanraj/canteen/pkg/stats"
	"github.com/shashiranjanraj/canteen/pkg/storage"
	"github.com/shashiranjanraj/canteen/pkg/tracing"
	"github.com/shashiranjanraj/canteen/pkg/workerpool"
)

// Options overrides what FromConfig would pick. Zero fields use defaults.
type Options struct {
	BaseURL     string
	TokenHeader string
	Timeout     time.Duration
	Transport   http.RoundTripper
	Storage     storage.Store
	Cache       cache.Cache
	CatalogTTL  time.Duration
	PoolSize    int
	Bus         *event.Bus

	// TraceOutput enables span export when non-nil.
	TraceOutput io.Writer
}

// FromConfig reads every option from the config package. Storage and cache
// are opened by New.
func FromConfig() Options {
	opts := Options{
		BaseURL:     config.APIBaseURL(),
		TokenHeader: config.TokenHeader(),
		Timeout:     config.HTTPTimeout(),
		CatalogTTL:  config.CatalogTTL(),
		PoolSize:    config.WorkerPoolSize(),
	}
	if config.TracingEnabled() {
		opts.TraceOutput = os.Stderr
	}
	return opts
}

// Client owns the stores and services of one user session.
type Client struct {
	Bus     *event.Bus
	Session *session.Store
	Cart    *cart.Store
	Gateway *gateway.Gateway
	Catalog *catalog.Catalog
	Orders  *order.Service
	Account *account.Service
	Stats   *stats.Service

	pool     *workerpool.Pool
	storage  storage.Store
	cache    cache.Cache
	shutdown tracing.Shutdown
}

// New opens storage, restores the session and cart, and wires the services.
func New(ctx context.Context, opts Options) (*Client, error) {
	c := &Client{}

	st := opts.Storage
	if st == nil {
		var err error
		if st, err = storage.Open(storage.FromConfig()); err != nil {
			return nil, fmt.Errorf("client: %w", err)
		}
	}
	c.storage = st

	sess, err := session.Open(st)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("client: %w", err)
	}
	c.Session = sess

	c.Bus = opts.Bus
	if c.Bus == nil {
		c.Bus = event.NewBus()
	}

	crt, err := cart.Open(st, c.Bus)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("client: %w", err)
	}
	c.Cart = crt

	c.cache = opts.Cache
	if c.cache == nil {
		if c.cache, err = cache.Open(ctx); err != nil {
			logger.Warn("client: cache unavailable, using memory", "error", err)
			c.cache = cache.NewMemory()
		}
	}

	rt := opts.Transport
	if rt == nil {
		rt = chttp.DefaultTransport()
	}
	if opts.TraceOutput != nil {
		if c.shutdown, err = tracing.Setup(opts.TraceOutput); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("client: %w", err)
		}
		rt = chttp.Traced(rt)
	}

	size := opts.PoolSize
	if size <= 0 {
		size = 4
	}
	c.pool = workerpool.New(size)

	c.Gateway = gateway.New(gateway.Options{
		BaseURL:     opts.BaseURL,
		TokenHeader: opts.TokenHeader,
		Client:      chttp.NewClient(rt, opts.Timeout),
		Session:     sess,
		Bus:         c.Bus,
		Pool:        c.pool,
	})
	ttl := opts.CatalogTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c.Catalog = catalog.New(c.Gateway, c.cache, ttl)
	c.Orders = order.New(c.Gateway, crt)
	c.Account = account.New(c.Gateway, crt)
	c.Stats = stats.New(c.Gateway)
	return c, nil
}

// Close drains in-flight async calls, flushes spans and closes storage.
func (c *Client) Close(ctx context.Context) error {
	c.pool.Shutdown()

	var errs []error
	if c.shutdown != nil {
		errs = append(errs, c.shutdown(ctx))
	}
	if r, ok := c.cache.(interface{ Close() error }); ok {
		errs = append(errs, r.Close())
	}
	errs = append(errs, c.storage.Close())
	return errors.Join(errs...)
}
