package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/shashiranjanraj/canteen/pkg/cart"
	"github.com/shashiranjanraj/canteen/pkg/event"
	"github.com/shashiranjanraj/canteen/pkg/gateway"
	chttp "github.com/shashiranjanraj/canteen/pkg/http"
	"github.com/shashiranjanraj/canteen/pkg/order"
	"github.com/shashiranjanraj/canteen/pkg/session"
	"github.com/shashiranjanraj/canteen/pkg/storage"
	"github.com/shashiranjanraj/canteen/pkg/testkit"
)

type OrderSuite struct {
	suite.Suite

	be      *testkit.Backend
	sess    *session.Store
	cart    *cart.Store
	bus     *event.Bus
	svc     *order.Service
	changes []order.StatusChange

	alice, admin int64
	rice, tea    int64
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(OrderSuite))
}

func (s *OrderSuite) SetupTest() {
	s.be = testkit.NewBackend(s.T())
	s.alice = s.be.AddUser("alice", "secret", "user")
	s.admin = s.be.AddUser("boss", "secret", "admin")
	cat := s.be.AddCategory("Mains", 1)
	s.rice = s.be.AddDish(cat, "Fried rice", "10.00")
	s.tea = s.be.AddDish(cat, "Milk tea", "8.00")

	st := storage.NewMemory()
	var err error
	s.sess, err = session.Open(st)
	s.Require().NoError(err)
	s.bus = event.NewBus()
	s.cart, err = cart.Open(st, s.bus)
	s.Require().NoError(err)

	s.changes = nil
	s.bus.Listen(event.OrderStatusChanged, func(p interface{}) {
		s.changes = append(s.changes, p.(order.StatusChange))
	})

	gw := gateway.New(gateway.Options{
		BaseURL: s.be.URL(),
		Client:  chttp.NewClient(s.be.Client().Transport, 5*time.Second),
		Session: s.sess,
		Bus:     s.bus,
	})
	s.svc = order.New(gw, s.cart)
}

func (s *OrderSuite) signIn(id int64, name string, role session.Role) {
	s.Require().NoError(s.sess.Set(s.be.TokenFor(id), &session.User{ID: id, Username: name, Role: role}))
}

func (s *OrderSuite) addRice(qty int) {
	s.Require().NoError(s.cart.Add(cart.Item{ID: s.rice, Name: "Fried rice", Price: decimal.RequireFromString("10.00")}, qty))
}

func (s *OrderSuite) placeOrder() *order.Order {
	s.addRice(1)
	rc, err := s.svc.Submit(context.Background(), "")
	s.Require().NoError(err)
	o, err := s.svc.Get(context.Background(), rc.ID)
	s.Require().NoError(err)
	return o
}

func (s *OrderSuite) TestSubmitEmptyCartMakesNoCall() {
	s.signIn(s.alice, "alice", session.Customer)

	_, err := s.svc.Submit(context.Background(), "")
	s.ErrorIs(err, order.ErrEmptyCart)
	s.Zero(s.be.TotalHits())
}

func (s *OrderSuite) TestSubmitRequiresSession() {
	s.addRice(1)

	_, err := s.svc.Submit(context.Background(), "")
	s.ErrorIs(err, order.ErrUnauthenticated)
	s.Zero(s.be.TotalHits())
	s.Equal(1, s.cart.Len(), "cart kept")
}

func (s *OrderSuite) TestSubmitPlacesOrderAndClearsCart() {
	s.signIn(s.alice, "alice", session.Customer)
	s.addRice(2)
	s.Require().NoError(s.cart.Add(cart.Item{ID: s.tea, Name: "Milk tea", Price: decimal.RequireFromString("8.00")}, 1))

	var submitted []interface{}
	s.bus.Listen(event.OrderSubmitted, func(p interface{}) { submitted = append(submitted, p) })

	rc, err := s.svc.Submit(context.Background(), "no onions")
	s.Require().NoError(err)
	s.NotZero(rc.ID)
	s.NotEmpty(rc.OrderNo)

	s.True(s.cart.IsEmpty())
	s.Equal([]interface{}{rc.ID}, submitted)
	s.Equal(1, s.be.OrderCount())
	s.Equal("28.00", s.be.OrderTotal(rc.ID))
	s.Equal(int(order.Pending), s.be.OrderStatus(rc.ID))

	o, err := s.svc.Get(context.Background(), rc.ID)
	s.Require().NoError(err)
	s.Equal("no onions", o.Remark)
	s.Equal(order.Pending, o.Status)
	s.Len(o.Items, 2)
	s.True(decimal.RequireFromString("28").Equal(o.TotalPrice))
}

func (s *OrderSuite) TestSubmitUsesPriceSeenAtAdd() {
	s.signIn(s.alice, "alice", session.Customer)
	s.addRice(1)
	s.be.SetDishPrice(s.rice, "99.00")

	rc, err := s.svc.Submit(context.Background(), "")
	s.Require().NoError(err)
	s.Equal("10.00", s.be.OrderTotal(rc.ID))
}

func (s *OrderSuite) TestSubmitTwicePlacesTwoOrders() {
	s.signIn(s.alice, "alice", session.Customer)
	s.addRice(1)
	_, err := s.svc.Submit(context.Background(), "")
	s.Require().NoError(err)

	s.addRice(1)
	_, err = s.svc.Submit(context.Background(), "")
	s.Require().NoError(err)
	s.Equal(2, s.be.OrderCount())
}

func (s *OrderSuite) TestSubmitFailureKeepsCart() {
	s.signIn(s.alice, "alice", session.Customer)
	s.addRice(1)
	s.be.RevokeTokens()

	_, err := s.svc.Submit(context.Background(), "")
	s.True(gateway.IsUnauthorized(err))
	s.Equal(1, s.cart.Len())
	s.False(s.sess.Authenticated())
}

func (s *OrderSuite) TestCustomerPaysAndCancels() {
	s.signIn(s.alice, "alice", session.Customer)
	paid := s.placeOrder()
	s.Require().NoError(s.svc.Pay(context.Background(), paid))
	s.Equal(order.Paid, paid.Status)
	s.Equal(int(order.Paid), s.be.OrderStatus(paid.ID))

	o := s.placeOrder()
	s.Require().NoError(s.svc.Cancel(context.Background(), o))
	s.Equal(order.Cancelled, o.Status)
	s.Equal(int(order.Cancelled), s.be.OrderStatus(o.ID))
	s.Equal(1, s.be.Hits("DELETE /api/order/{id}"))

	s.Require().Len(s.changes, 2)
	s.Equal(order.StatusChange{OrderID: o.ID, From: order.Pending, To: order.Cancelled, Event: order.Cancel}, s.changes[1])
}

func (s *OrderSuite) TestPendingRejectsStartDeliveryLocally() {
	s.signIn(s.admin, "boss", session.Admin)
	o := &order.Order{ID: 12345, Status: order.Pending}

	err := s.svc.StartDelivery(context.Background(), o)
	s.ErrorIs(err, order.ErrInvalidTransition)
	s.Equal(order.Pending, o.Status)
	s.Zero(s.be.TotalHits())
	s.Empty(s.changes)
}

func (s *OrderSuite) TestPaidOffersOnlyStartDeliveryToAdmin() {
	s.signIn(s.alice, "alice", session.Customer)
	o := s.placeOrder()
	s.Require().NoError(s.svc.Pay(context.Background(), o))

	s.Empty(order.AllowedTransitions(o.Status, s.sess.Role()))
	s.ErrorIs(s.svc.Cancel(context.Background(), o), order.ErrInvalidTransition)

	s.signIn(s.admin, "boss", session.Admin)
	s.Equal([]order.Event{order.StartDelivery}, order.AllowedTransitions(o.Status, s.sess.Role()))

	s.Require().NoError(s.svc.Advance(context.Background(), o))
	s.Equal(order.Delivering, o.Status)
	s.Require().NoError(s.svc.Complete(context.Background(), o))
	s.Equal(order.Completed, o.Status)
	s.Equal(int(order.Completed), s.be.OrderStatus(o.ID))

	s.ErrorIs(s.svc.Advance(context.Background(), o), order.ErrInvalidTransition)
}

func (s *OrderSuite) TestBackendRejectionLeavesStatus() {
	s.signIn(s.alice, "alice", session.Customer)
	o := s.placeOrder()
	// Another device already moved it on.
	s.be.SetOrderStatus(o.ID, int(order.Delivering))

	err := s.svc.Cancel(context.Background(), o)
	s.Require().Error(err)
	kind, _ := gateway.KindOf(err)
	s.Equal(gateway.ApplicationError, kind)
	s.Equal("order cannot be cancelled", gateway.Message(err))
	s.Equal(order.Pending, o.Status)
}

func (s *OrderSuite) TestListsAndFilters() {
	s.signIn(s.alice, "alice", session.Customer)
	first := s.placeOrder()
	second := s.placeOrder()
	s.Require().NoError(s.svc.Pay(context.Background(), second))

	mine, err := s.svc.Mine(context.Background(), order.Query{})
	s.Require().NoError(err)
	s.Equal(2, mine.Total)
	s.Require().Len(mine.List, 2)
	s.Equal(second.ID, mine.List[0].ID, "newest first")

	pending, err := s.svc.Mine(context.Background(), order.Query{Status: order.Pending})
	s.Require().NoError(err)
	s.Require().Len(pending.List, 1)
	s.Equal(first.ID, pending.List[0].ID)

	_, err = s.svc.All(context.Background(), order.Query{})
	kind, _ := gateway.KindOf(err)
	s.Equal(gateway.ApplicationError, kind, "customers cannot list all orders")

	s.signIn(s.admin, "boss", session.Admin)
	all, err := s.svc.All(context.Background(), order.Query{Page: 1, PageSize: 1})
	s.Require().NoError(err)
	s.Equal(2, all.Total)
	s.Len(all.List, 1)
	s.Equal("alice", all.List[0].UserNickname)
}

func TestItemSubtotal(t *testing.T) {
	it := order.Item{DishPrice: decimal.RequireFromString("12.50"), Quantity: 3}
	assert.Equal(t, "37.50", it.Subtotal().StringFixed(2))
}

func TestNewWithoutCart(t *testing.T) {
	sess, err := session.Open(storage.NewMemory())
	require.NoError(t, err)
	svc := order.New(gateway.New(gateway.Options{BaseURL: "http://unused", Session: sess}), nil)

	_, err = svc.Submit(context.Background(), "")
	assert.ErrorIs(t, err, order.ErrEmptyCart)
}
