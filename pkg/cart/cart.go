// Package cart is the local shopping cart: a map from item id to line,
// persisted after every mutation and restored on Open.
//
// A line's unit price is captured the first time the item is added and never
// refreshed, so totals reflect what the user saw when they picked the item.
//
//	c, err := cart.Open(st, bus)
//	_ = c.Add(cart.Item{ID: 1, Name: "Fried rice", Price: decimal.RequireFromString("12.50")}, 2)
//	fmt.Println(c.Totals().Display()) // 25.00
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/canteen/pkg/event"
	"github.com/shashiranjanraj/canteen/pkg/logger"
	"github.com/shashiranjanraj/canteen/pkg/metrics"
	"github.com/shashiranjanraj/canteen/pkg/storage"
)

const (
	// StorageKey is where the cart lives in storage.
	StorageKey = "cart"

	// MaxQuantity caps a single line.
	MaxQuantity = 999
)

var (
	// ErrInvalidPrice is returned by Add for a negative unit price.
	ErrInvalidPrice = errors.New("cart: unit price must not be negative")

	// ErrQuantityLimit is returned when a line would exceed MaxQuantity. The
	// cart is left unchanged.
	ErrQuantityLimit = fmt.Errorf("cart: at most %d of one item", MaxQuantity)
)

// Item is what the catalog hands to the cart.
type Item struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

// Line is one cart entry. Quantity is always >= 1.
type Line struct {
	ItemID    int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is derived from the lines on every call.
type Totals struct {
	Count int
	Price decimal.Decimal
}

// Display renders the price rounded to two decimals.
func (t Totals) Display() string { return t.Price.StringFixed(2) }

// Store is the cart. Methods are serialized by a mutex and must not be
// called from inside a cart event listener.
type Store struct {
	mu    sync.Mutex
	st    storage.Store
	bus   *event.Bus
	lines map[int64]Line
}

// Open restores the persisted cart. A missing or unsealable cart is empty; a
// corrupted one is an error.
func Open(st storage.Store, bus *event.Bus) (*Store, error) {
	c := &Store{st: st, bus: bus, lines: map[int64]Line{}}

	raw, err := st.Get(StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return c, nil
	}
	if errors.Is(err, storage.ErrSealed) {
		// Written under another STORAGE_SECRET; the next mutation replaces it.
		logger.Warn("cart: saved cart unreadable, starting empty", "error", err)
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: load: %w", err)
	}

	var saved map[string]Line
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("cart: decode: %w", err)
	}
	for key, l := range saved {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || l.Quantity < 1 || l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("cart: decode: bad line %q", key)
		}
		l.ItemID = id
		c.lines[id] = l
	}
	return c, nil
}

// ------------------- Mutations -------------------

// Add puts qty of item in the cart. qty < 1 counts as 1. An existing line
// keeps its original price and only grows, up to MaxQuantity.
func (c *Store) Add(item Item, qty int) error {
	if item.Price.IsNegative() {
		metrics.CartOp("add", ErrInvalidPrice)
		return ErrInvalidPrice
	}
	if qty < 1 {
		qty = 1
	}
	var over bool
	err := c.mutate("add", func(lines map[int64]Line) bool {
		l, ok := lines[item.ID]
		if !ok {
			l = Line{ItemID: item.ID, Name: item.Name, UnitPrice: item.Price}
		}
		if qty > MaxQuantity-l.Quantity {
			over = true
			return false
		}
		l.Quantity += qty
		lines[item.ID] = l
		return true
	})
	if over {
		metrics.CartOp("add", ErrQuantityLimit)
		return ErrQuantityLimit
	}
	return err
}

// Increment adds one to an existing line. Unknown ids are ignored.
func (c *Store) Increment(id int64) error {
	var over bool
	err := c.mutate("increment", func(lines map[int64]Line) bool {
		l, ok := lines[id]
		if !ok {
			return false
		}
		if l.Quantity >= MaxQuantity {
			over = true
			return false
		}
		l.Quantity++
		lines[id] = l
		return true
	})
	if over {
		metrics.CartOp("increment", ErrQuantityLimit)
		return ErrQuantityLimit
	}
	return err
}

// Decrement removes one from a line, dropping it at zero. Unknown ids are
// ignored.
func (c *Store) Decrement(id int64) error {
	return c.mutate("decrement", func(lines map[int64]Line) bool {
		l, ok := lines[id]
		if !ok {
			return false
		}
		if l.Quantity <= 1 {
			delete(lines, id)
			return true
		}
		l.Quantity--
		lines[id] = l
		return true
	})
}

// Remove drops a line entirely.
func (c *Store) Remove(id int64) error {
	return c.mutate("remove", func(lines map[int64]Line) bool {
		if _, ok := lines[id]; !ok {
			return false
		}
		delete(lines, id)
		return true
	})
}

// Clear empties the cart.
func (c *Store) Clear() error {
	return c.mutate("clear", func(lines map[int64]Line) bool {
		if len(lines) == 0 {
			return false
		}
		for id := range lines {
			delete(lines, id)
		}
		return true
	})
}

// mutate applies fn to a copy of the lines, persists the copy, and only then
// makes it current. A failed write leaves the cart as it was.
func (c *Store) mutate(op string, fn func(lines map[int64]Line) bool) error {
	c.mu.Lock()

	next := make(map[int64]Line, len(c.lines)+1)
	for id, l := range c.lines {
		next[id] = l
	}
	if !fn(next) {
		c.mu.Unlock()
		return nil
	}

	if err := c.persist(next); err != nil {
		c.mu.Unlock()
		metrics.CartOp(op, err)
		return err
	}
	c.lines = next
	totals := totalsOf(next)
	c.mu.Unlock()

	metrics.CartOp(op, nil)
	c.bus.Fire(event.CartChanged, totals)
	return nil
}

func (c *Store) persist(lines map[int64]Line) error {
	if len(lines) == 0 {
		if err := c.st.Delete(StorageKey); err != nil {
			return fmt.Errorf("cart: persist: %w", err)
		}
		return nil
	}

	out := make(map[string]Line, len(lines))
	for id, l := range lines {
		out[strconv.FormatInt(id, 10)] = l
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("cart: encode: %w", err)
	}
	if err := c.st.Put(StorageKey, raw); err != nil {
		return fmt.Errorf("cart: persist: %w", err)
	}
	return nil
}

// ------------------- Reads -------------------

// Quantity returns how many of id are in the cart, 0 if none.
func (c *Store) Quantity(id int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines[id].Quantity
}

// Lines returns the lines ordered by item id.
func (c *Store) Lines() []Line {
	c.mu.Lock()
	out := make([]Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, l)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// Len is the number of distinct lines.
func (c *Store) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Store) IsEmpty() bool { return c.Len() == 0 }

// Totals recomputes count and price from the current lines.
func (c *Store) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalsOf(c.lines)
}

func totalsOf(lines map[int64]Line) Totals {
	t := Totals{Price: decimal.Zero}
	for _, l := range lines {
		t.Count += l.Quantity
		t.Price = t.Price.Add(l.Subtotal())
	}
	return t
}
