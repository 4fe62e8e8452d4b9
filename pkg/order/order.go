// Package order turns a cart into a backend order and drives the order
// through its status lifecycle.
//
// Status changes are validated locally against a role-gated table before any
// request is made:
//
//	Pending    --markPaid-->      Paid        (customer or admin)
//	Pending    --cancel-->        Cancelled   (customer or admin)
//	Paid       --startDelivery--> Delivering  (admin)
//	Delivering --markComplete-->  Completed   (admin)
//
// Completed and Cancelled are terminal.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/canteen/pkg/cart"
	"github.com/shashiranjanraj/canteen/pkg/event"
	"github.com/shashiranjanraj/canteen/pkg/gateway"
	"github.com/shashiranjanraj/canteen/pkg/logger"
	"github.com/shashiranjanraj/canteen/pkg/metrics"
)

var (
	// ErrEmptyCart is returned by Submit when the cart has no lines.
	ErrEmptyCart = errors.New("order: cart is empty")
	// ErrUnauthenticated is returned by Submit without a signed-in user.
	ErrUnauthenticated = errors.New("order: not signed in")
)

// Item is one immutable order line.
type Item struct {
	DishID    int64           `json:"dish_id"`
	DishName  string          `json:"dish_name"`
	DishPrice decimal.Decimal `json:"dish_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is DishPrice × Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.DishPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order as returned by the list and detail endpoints.
type Order struct {
	ID           int64           `json:"id"`
	OrderNo      string          `json:"order_no"`
	UserID       int64           `json:"user_id"`
	UserNickname string          `json:"user_nickname,omitempty"`
	Items        []Item          `json:"items"`
	Remark       string          `json:"remark"`
	Status       Status          `json:"status"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CreatedAt    string          `json:"created_at"`
}

// Receipt identifies a freshly created order.
type Receipt struct {
	ID      int64  `json:"order_id"`
	OrderNo string `json:"order_no"`
}

// Query filters the order lists. Zero fields are left to the backend.
type Query struct {
	Status   Status `json:"status,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// Service talks to the order endpoints on behalf of the signed-in user.
type Service struct {
	gw   *gateway.Gateway
	cart *cart.Store
}

// New returns a Service. cart may be nil for admin-only use; Submit then
// always reports ErrEmptyCart.
func New(gw *gateway.Gateway, c *cart.Store) *Service {
	return &Service{gw: gw, cart: c}
}

type createItem struct {
	DishID    int64       `json:"dish_id"`
	DishName  string      `json:"dish_name"`
	DishPrice json.Number `json:"dish_price"`
	Quantity  int         `json:"quantity"`
}

type createRequest struct {
	UserID int64        `json:"user_id"`
	Items  []createItem `json:"items"`
	Remark string       `json:"remark"`
}

// Submit places the cart as a new order. The cart is cleared only once the
// backend has accepted it. Submitting twice places two orders.
func (s *Service) Submit(ctx context.Context, remark string) (Receipt, error) {
	if s.cart == nil || s.cart.IsEmpty() {
		metrics.OrdersSubmitted.WithLabelValues("empty").Inc()
		return Receipt{}, ErrEmptyCart
	}
	sess := s.gw.Session()
	user := sess.User()
	if !sess.Authenticated() || user == nil {
		metrics.OrdersSubmitted.WithLabelValues("unauthenticated").Inc()
		return Receipt{}, ErrUnauthenticated
	}

	lines := s.cart.Lines()
	body := createRequest{UserID: user.ID, Remark: remark, Items: make([]createItem, 0, len(lines))}
	for _, l := range lines {
		body.Items = append(body.Items, createItem{
			DishID:    l.ItemID,
			DishName:  l.Name,
			DishPrice: json.Number(l.UnitPrice.String()),
			Quantity:  l.Quantity,
		})
	}

	env, err := s.gw.Call(ctx, gateway.Request{
		Path:         "/order/create",
		Method:       http.MethodPost,
		Payload:      body,
		RequiresAuth: true,
	})
	if err != nil {
		metrics.OrdersSubmitted.WithLabelValues("error").Inc()
		return Receipt{}, err
	}
	rc, err := gateway.Decode[Receipt](env)
	if err != nil {
		metrics.OrdersSubmitted.WithLabelValues("error").Inc()
		return Receipt{}, err
	}
	metrics.OrdersSubmitted.WithLabelValues("ok").Inc()

	// The order exists now; a cart that fails to clear must not hide that.
	if err := s.cart.Clear(); err != nil {
		logger.WithCtx(ctx).Error("order: clear cart after submit", "order_id", rc.ID, "error", err)
	}
	s.gw.Bus().Fire(event.OrderSubmitted, rc.ID)
	s.gw.Bus().Toast(event.Success, "order placed")
	return rc, nil
}

// Apply validates ev against o's status and the session role, then asks the
// backend to perform it. o.Status changes only after the backend agrees.
func (s *Service) Apply(ctx context.Context, o *Order, ev Event) error {
	to, err := Transition(o.Status, ev, s.gw.Session().Role())
	if err != nil {
		metrics.OrderTransitions.WithLabelValues(string(ev), "rejected").Inc()
		return err
	}

	req := gateway.Request{
		Path:         fmt.Sprintf("/order/%d", o.ID),
		Method:       http.MethodDelete,
		RequiresAuth: true,
	}
	if ev != Cancel {
		req.Path += "/status"
		req.Method = http.MethodPut
		req.Payload = map[string]int{"status": int(to)}
	}

	if _, err := s.gw.Call(ctx, req); err != nil {
		metrics.OrderTransitions.WithLabelValues(string(ev), "error").Inc()
		return err
	}
	metrics.OrderTransitions.WithLabelValues(string(ev), "ok").Inc()

	from := o.Status
	o.Status = to
	s.gw.Bus().Fire(event.OrderStatusChanged, StatusChange{OrderID: o.ID, From: from, To: to, Event: ev})
	return nil
}

// Cancel applies the cancel event.
func (s *Service) Cancel(ctx context.Context, o *Order) error { return s.Apply(ctx, o, Cancel) }

// Pay marks a pending order paid. There is no settlement behind it.
func (s *Service) Pay(ctx context.Context, o *Order) error { return s.Apply(ctx, o, MarkPaid) }

func (s *Service) StartDelivery(ctx context.Context, o *Order) error {
	return s.Apply(ctx, o, StartDelivery)
}

func (s *Service) Complete(ctx context.Context, o *Order) error { return s.Apply(ctx, o, MarkComplete) }

// Advance applies the single forward event offered to the session's role.
func (s *Service) Advance(ctx context.Context, o *Order) error {
	ev, ok := NextForward(o.Status, s.gw.Session().Role())
	if !ok {
		return fmt.Errorf("%w: nothing follows %s", ErrInvalidTransition, Label(o.Status))
	}
	return s.Apply(ctx, o, ev)
}

// Mine lists the signed-in user's orders, newest first.
func (s *Service) Mine(ctx context.Context, q Query) (gateway.Page[Order], error) {
	return s.list(ctx, "/order/my", q)
}

// All lists every order (admin).
func (s *Service) All(ctx context.Context, q Query) (gateway.Page[Order], error) {
	return s.list(ctx, "/order/list", q)
}

func (s *Service) list(ctx context.Context, path string, q Query) (gateway.Page[Order], error) {
	env, err := s.gw.Call(ctx, gateway.Request{
		Path:         path,
		Method:       http.MethodGet,
		Payload:      q,
		RequiresAuth: true,
	})
	if err != nil {
		return gateway.Page[Order]{}, err
	}
	return gateway.Decode[gateway.Page[Order]](env)
}

// Get fetches one order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	env, err := s.gw.Call(ctx, gateway.Request{
		Path:         fmt.Sprintf("/order/%d", id),
		Method:       http.MethodGet,
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	o, err := gateway.Decode[Order](env)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
