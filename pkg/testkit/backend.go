package testkit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/canteen/pkg/auth"
	"github.com/shashiranjanraj/canteen/pkg/bind"
	"github.com/shashiranjanraj/canteen/pkg/middleware"
	"github.com/shashiranjanraj/canteen/pkg/response"
)

// ─── Backend ──────────────────────────────────────────────────────────────────

// Backend is an in-memory fake of the food-ordering REST API. It speaks the
// real contract: {code, message, data} envelopes, the "token" header, 401 for
// missing or invalid tokens, and HTTP 200 with a non-200 code for business
// rule rejections.
//
//	be := testkit.NewBackend(t)
//	be.AddUser("alice", "pw", "user")
//	c := client.New(client.Options{BaseURL: be.URL(), ...})
type Backend struct {
	t      *testing.T
	srv    *httptest.Server
	mu     sync.Mutex
	secret []byte
	now    func() time.Time

	users      map[int64]*beUser
	categories map[int64]*beCategory
	dishes     map[int64]*beDish
	orders     map[int64]*beOrder
	nextID     int64
	hits       map[string]int
}

type beUser struct {
	ID        int64
	Username  string
	Hash      string
	Nickname  string
	Phone     string
	AvatarURL string
	Role      string // "user" | "admin"
	CreatedAt time.Time
}

type beCategory struct {
	ID        int64
	Name      string
	SortOrder int
	Status    int
}

type beDish struct {
	ID          int64
	CategoryID  int64
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Status      int
	SortOrder   int
	Sales       int
}

type beItem struct {
	DishID   int64
	DishName string
	Price    decimal.Decimal
	Quantity int
}

type beOrder struct {
	ID        int64
	OrderNo   string
	UserID    int64
	Items     []beItem
	Remark    string
	Status    int
	Total     decimal.Decimal
	CreatedAt time.Time
}

// NewBackend starts the fake on a local port and stops it when t ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		t:          t,
		secret:     []byte("testkit-secret"),
		now:        time.Now,
		users:      map[int64]*beUser{},
		categories: map[int64]*beCategory{},
		dishes:     map[int64]*beDish{},
		orders:     map[int64]*beOrder{},
		hits:       map[string]int{},
	}
	b.srv = httptest.NewServer(b.routes())
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the API base URL, including the /api prefix.
func (b *Backend) URL() string { return b.srv.URL + "/api" }

// Client returns an *http.Client bound to the fake server.
func (b *Backend) Client() *http.Client { return b.srv.Client() }

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.count, middleware.Logger, middleware.Recovery)

	r.Route("/api", func(r chi.Router) {
		r.Post("/user/register", b.register)
		r.Post("/user/login", b.login)
		r.Get("/user/info", b.authed(b.userInfo))
		r.Put("/user/update", b.authed(b.userUpdate))
		r.Get("/admin/users", b.admin(b.userList))

		r.Get("/category/list", b.categoryList)

		r.Get("/dish/list", b.dishList)
		r.Post("/dish/create", b.admin(b.dishCreate))
		r.Get("/dish/{id}", b.dishDetail)
		r.Put("/dish/{id}", b.admin(b.dishUpdate))
		r.Delete("/dish/{id}", b.admin(b.dishDelete))

		r.Post("/order/create", b.authed(b.orderCreate))
		r.Get("/order/my", b.authed(b.orderMine))
		r.Get("/order/list", b.admin(b.orderList))
		r.Get("/order/{id}", b.authed(b.orderDetail))
		r.Put("/order/{id}/status", b.authed(b.orderStatus))
		r.Delete("/order/{id}", b.authed(b.orderCancel))

		r.Get("/statistics/overview", b.admin(b.statistics))
	})
	return r
}

// ─── Seeding & inspection ─────────────────────────────────────────────────────

// AddUser creates an account; role is "user" or "admin".
func (b *Backend) AddUser(username, password, role string) int64 {
	hash, err := auth.HashPassword(password)
	if err != nil {
		b.t.Fatalf("testkit: hash password: %v", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.users[b.nextID] = &beUser{ID: b.nextID, Username: username, Hash: hash, Nickname: username, Role: role, CreatedAt: b.now()}
	return b.nextID
}

// TokenFor issues a valid token for a seeded user, skipping /user/login.
func (b *Backend) TokenFor(id int64) string {
	b.mu.Lock()
	u, found := b.users[id]
	secret := b.secret
	b.mu.Unlock()
	if !found {
		b.t.Fatalf("testkit: no user %d", id)
	}
	tok, err := auth.Issue(secret, u.ID, u.Role, time.Hour)
	if err != nil {
		b.t.Fatalf("testkit: issue token: %v", err)
	}
	return tok
}

// AddCategory creates an enabled category.
func (b *Backend) AddCategory(name string, sortOrder int) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.categories[b.nextID] = &beCategory{ID: b.nextID, Name: name, SortOrder: sortOrder, Status: 1}
	return b.nextID
}

// AddDish creates an on-sale dish. price is a decimal string such as "12.50".
func (b *Backend) AddDish(categoryID int64, name, price string) int64 {
	p := decimal.RequireFromString(price)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.dishes[b.nextID] = &beDish{ID: b.nextID, CategoryID: categoryID, Name: name, Price: p, Status: 1}
	return b.nextID
}

// SetDishPrice changes a dish's price server-side.
func (b *Backend) SetDishPrice(id int64, price string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dishes[id].Price = decimal.RequireFromString(price)
}

// OrderStatus returns the stored status of an order, 0 if unknown.
func (b *Backend) OrderStatus(id int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o, ok := b.orders[id]; ok {
		return o.Status
	}
	return 0
}

// SetOrderStatus forces an order's status.
func (b *Backend) SetOrderStatus(id int64, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders[id].Status = status
}

// OrderCount returns how many orders exist.
func (b *Backend) OrderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}

// OrderTotal returns the stored total of an order as a string.
func (b *Backend) OrderTotal(id int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.orders[id].Total.StringFixed(2)
}

// RevokeTokens rotates the signing secret so every issued token gets 401.
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	b.secret = []byte(fmt.Sprintf("rotated-%d", time.Now().UnixNano()))
	b.mu.Unlock()
}

// Hits returns how many requests matched "METHOD /api/route/{pattern}".
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// TotalHits returns how many requests reached the server.
func (b *Backend) TotalHits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.hits {
		n += v
	}
	return n
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		pattern := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			pattern = rc.RoutePattern()
		}
		b.mu.Lock()
		b.hits[r.Method+" "+pattern]++
		b.mu.Unlock()
	})
}

// ─── Envelope helpers ─────────────────────────────────────────────────────────

// decode binds the body into dest and answers the failure itself.
func decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	errs, err := bind.JSON(w, r, dest)
	switch {
	case err != nil:
		response.Reject(w, 400, err.Error())
		return false
	case len(errs) > 0:
		response.ValidationError(w, errs)
		return false
	}
	return true
}

func money(d decimal.Decimal) json.Number { return json.Number(d.StringFixed(2)) }

func page(r *http.Request, defSize int) (int, int) {
	p, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if p < 1 {
		p = 1
	}
	if size < 1 {
		size = defSize
	}
	return p, size
}

func slice[T any](all []T, p, size int) []T {
	start := (p - 1) * size
	if start >= len(all) {
		return []T{}
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

// ─── Auth ─────────────────────────────────────────────────────────────────────

type authedHandler func(w http.ResponseWriter, r *http.Request, u *beUser)

func (b *Backend) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		secret := b.secret
		b.mu.Unlock()

		claims, err := auth.Validate(secret, r.Header.Get("token"))
		if err != nil {
			response.Unauthorized(w, "invalid token")
			return
		}
		b.mu.Lock()
		u, found := b.users[claims.UserID]
		b.mu.Unlock()
		if !found {
			response.Unauthorized(w, "invalid token")
			return
		}
		next(w, r, u)
	}
}

func (b *Backend) admin(next authedHandler) http.HandlerFunc {
	return b.authed(func(w http.ResponseWriter, r *http.Request, u *beUser) {
		if u.Role != "admin" {
			response.Reject(w, 403, "admin only")
			return
		}
		next(w, r, u)
	})
}

func userJSON(u *beUser) map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"username":   u.Username,
		"nickname":   u.Nickname,
		"phone":      u.Phone,
		"avatar_url": u.AvatarURL,
		"role":       u.Role,
		"created_at": u.CreatedAt.Format(time.RFC3339),
	}
}

func (b *Backend) issue(w http.ResponseWriter, u *beUser, message string) {
	b.mu.Lock()
	secret := b.secret
	b.mu.Unlock()
	tok, err := auth.Issue(secret, u.ID, u.Role, time.Hour)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, message, map[string]interface{}{"token": tok, "user": userJSON(u)})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
		Nickname string `json:"nickname"`
		Phone    string `json:"phone"`
	}
	if !decode(w, r, &in) {
		return
	}

	b.mu.Lock()
	for _, u := range b.users {
		if u.Username == in.Username {
			b.mu.Unlock()
			response.Reject(w, 400, "username already exists")
			return
		}
	}
	b.mu.Unlock()

	id := b.AddUser(in.Username, in.Password, "user")
	b.mu.Lock()
	u := b.users[id]
	if in.Nickname != "" {
		u.Nickname = in.Nickname
	}
	u.Phone = in.Phone
	b.mu.Unlock()

	b.issue(w, u, "registered")
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !decode(w, r, &in) {
		return
	}

	b.mu.Lock()
	var found *beUser
	for _, u := range b.users {
		if u.Username == in.Username {
			found = u
			break
		}
	}
	b.mu.Unlock()

	if found == nil || !auth.CheckPassword(found.Hash, in.Password) {
		response.Unauthorized(w, "wrong username or password")
		return
	}
	b.issue(w, found, "login ok")
}

func (b *Backend) userInfo(w http.ResponseWriter, _ *http.Request, u *beUser) {
	b.mu.Lock()
	defer b.mu.Unlock()
	response.OK(w, "success", userJSON(u))
}

func (b *Backend) userUpdate(w http.ResponseWriter, r *http.Request, u *beUser) {
	var in struct {
		Nickname  *string `json:"nickname"`
		Phone     *string `json:"phone"`
		AvatarURL *string `json:"avatar_url"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if in.Nickname != nil {
		u.Nickname = *in.Nickname
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.AvatarURL != nil {
		u.AvatarURL = *in.AvatarURL
	}
	response.OK(w, "updated", nil)
}

func (b *Backend) userList(w http.ResponseWriter, r *http.Request, _ *beUser) {
	p, size := page(r, 10)
	b.mu.Lock()
	defer b.mu.Unlock()

	var all []*beUser
	for _, u := range b.users {
		if u.Role == "user" {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	list := []map[string]interface{}{}
	for _, u := range slice(all, p, size) {
		list = append(list, userJSON(u))
	}
	response.Paginated(w, list, len(all), p, size)
}

// ─── Catalog ──────────────────────────────────────────────────────────────────

func (b *Backend) categoryList(w http.ResponseWriter, r *http.Request) {
	status, hasStatus := intParam(r, "status")
	b.mu.Lock()
	defer b.mu.Unlock()

	var all []*beCategory
	for _, c := range b.categories {
		if hasStatus && c.Status != status {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].SortOrder != all[j].SortOrder {
			return all[i].SortOrder < all[j].SortOrder
		}
		return all[i].ID < all[j].ID
	})

	list := []map[string]interface{}{}
	for _, c := range all {
		list = append(list, map[string]interface{}{"id": c.ID, "name": c.Name, "sort_order": c.SortOrder, "status": c.Status})
	}
	response.OK(w, "success", list)
}

func intParam(r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func (b *Backend) dishJSON(d *beDish) map[string]interface{} {
	name := ""
	if c, ok := b.categories[d.CategoryID]; ok {
		name = c.Name
	}
	return map[string]interface{}{
		"id":            d.ID,
		"category_id":   d.CategoryID,
		"name":          d.Name,
		"description":   d.Description,
		"price":         money(d.Price),
		"image_url":     d.ImageURL,
		"status":        d.Status,
		"sort_order":    d.SortOrder,
		"sales":         d.Sales,
		"category_name": name,
	}
}

func (b *Backend) dishList(w http.ResponseWriter, r *http.Request) {
	p, size := page(r, 20)
	category, _ := intParam(r, "category_id")
	status, hasStatus := intParam(r, "status")

	b.mu.Lock()
	defer b.mu.Unlock()

	var all []*beDish
	for _, d := range b.dishes {
		if category != 0 && d.CategoryID != int64(category) {
			continue
		}
		if hasStatus && d.Status != status {
			continue
		}
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].SortOrder != all[j].SortOrder {
			return all[i].SortOrder < all[j].SortOrder
		}
		return all[i].ID > all[j].ID
	})

	list := []map[string]interface{}{}
	for _, d := range slice(all, p, size) {
		list = append(list, b.dishJSON(d))
	}
	response.Paginated(w, list, len(all), p, size)
}

func (b *Backend) dishDetail(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, found := b.dishes[pathID(r)]
	if !found {
		response.Reject(w, 404, "dish not found")
		return
	}
	response.OK(w, "success", b.dishJSON(d))
}

type dishInput struct {
	CategoryID  *int64           `json:"category_id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url"`
	Status      *int             `json:"status"`
	SortOrder   *int             `json:"sort_order"`
}

func (in dishInput) apply(d *beDish) {
	if in.CategoryID != nil {
		d.CategoryID = *in.CategoryID
	}
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Price != nil {
		d.Price = *in.Price
	}
	if in.ImageURL != nil {
		d.ImageURL = *in.ImageURL
	}
	if in.Status != nil {
		d.Status = *in.Status
	}
	if in.SortOrder != nil {
		d.SortOrder = *in.SortOrder
	}
}

func (b *Backend) dishCreate(w http.ResponseWriter, r *http.Request, _ *beUser) {
	var in dishInput
	if !decode(w, r, &in) {
		return
	}
	if in.Name == nil || in.Price == nil || in.CategoryID == nil {
		response.Reject(w, 400, "category_id, name and price are required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	d := &beDish{ID: b.nextID, Status: 1}
	in.apply(d)
	b.dishes[d.ID] = d
	response.OK(w, "created", map[string]interface{}{"id": d.ID})
}

func (b *Backend) dishUpdate(w http.ResponseWriter, r *http.Request, _ *beUser) {
	var in dishInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	d, found := b.dishes[pathID(r)]
	if !found {
		response.Reject(w, 404, "dish not found")
		return
	}
	in.apply(d)
	response.OK(w, "updated", nil)
}

func (b *Backend) dishDelete(w http.ResponseWriter, r *http.Request, _ *beUser) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.dishes, pathID(r))
	response.OK(w, "deleted", nil)
}

// ─── Orders ───────────────────────────────────────────────────────────────────

func (b *Backend) orderJSON(o *beOrder) map[string]interface{} {
	items := []map[string]interface{}{}
	for _, it := range o.Items {
		items = append(items, map[string]interface{}{
			"order_id":   o.ID,
			"dish_id":    it.DishID,
			"dish_name":  it.DishName,
			"dish_price": money(it.Price),
			"quantity":   it.Quantity,
			"subtotal":   money(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))),
		})
	}
	nickname := ""
	if u, ok := b.users[o.UserID]; ok {
		nickname = u.Nickname
	}
	return map[string]interface{}{
		"id":            o.ID,
		"order_no":      o.OrderNo,
		"user_id":       o.UserID,
		"user_nickname": nickname,
		"total_price":   money(o.Total),
		"status":        o.Status,
		"remark":        o.Remark,
		"created_at":    o.CreatedAt.Format(time.RFC3339),
		"items":         items,
	}
}

func (b *Backend) orderCreate(w http.ResponseWriter, r *http.Request, u *beUser) {
	var in struct {
		UserID int64 `json:"user_id"`
		Items  []struct {
			DishID    int64           `json:"dish_id"`
			DishName  string          `json:"dish_name"`
			DishPrice decimal.Decimal `json:"dish_price"`
			Quantity  int             `json:"quantity"`
		} `json:"items"`
		Remark string `json:"remark"`
	}
	if !decode(w, r, &in) {
		return
	}
	if len(in.Items) == 0 {
		response.Reject(w, 400, "order has no items")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	o := &beOrder{
		ID:        b.nextID,
		OrderNo:   fmt.Sprintf("%s%04d", b.now().Format("20060102150405"), b.nextID),
		UserID:    u.ID,
		Remark:    in.Remark,
		Status:    1,
		CreatedAt: b.now(),
	}
	for _, it := range in.Items {
		o.Items = append(o.Items, beItem{DishID: it.DishID, DishName: it.DishName, Price: it.DishPrice, Quantity: it.Quantity})
		o.Total = o.Total.Add(it.DishPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		if d, ok := b.dishes[it.DishID]; ok {
			d.Sales += it.Quantity
		}
	}
	b.orders[o.ID] = o
	response.OK(w, "order placed", map[string]interface{}{"order_id": o.ID, "order_no": o.OrderNo})
}

func (b *Backend) listOrders(w http.ResponseWriter, r *http.Request, keep func(*beOrder) bool) {
	p, size := page(r, 10)
	status, _ := intParam(r, "status")

	b.mu.Lock()
	defer b.mu.Unlock()

	var all []*beOrder
	for _, o := range b.orders {
		if !keep(o) || (status != 0 && o.Status != status) {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	list := []map[string]interface{}{}
	for _, o := range slice(all, p, size) {
		list = append(list, b.orderJSON(o))
	}
	response.Paginated(w, list, len(all), p, size)
}

func (b *Backend) orderMine(w http.ResponseWriter, r *http.Request, u *beUser) {
	b.listOrders(w, r, func(o *beOrder) bool { return o.UserID == u.ID })
}

func (b *Backend) orderList(w http.ResponseWriter, r *http.Request, _ *beUser) {
	b.listOrders(w, r, func(*beOrder) bool { return true })
}

func (b *Backend) orderDetail(w http.ResponseWriter, r *http.Request, u *beUser) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, found := b.orders[pathID(r)]
	if !found || (u.Role != "admin" && o.UserID != u.ID) {
		response.Reject(w, 404, "order not found")
		return
	}
	response.OK(w, "success", b.orderJSON(o))
}

func (b *Backend) orderStatus(w http.ResponseWriter, r *http.Request, u *beUser) {
	var in struct {
		Status int `json:"status" validate:"gte=1,lte=5"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	o, found := b.orders[pathID(r)]
	if !found {
		response.Reject(w, 404, "order not found")
		return
	}
	// Customers may only pay their own pending orders.
	if u.Role != "admin" && (o.UserID != u.ID || o.Status != 1 || in.Status != 2) {
		response.Reject(w, 403, "forbidden")
		return
	}
	o.Status = in.Status
	response.OK(w, "updated", nil)
}

func (b *Backend) orderCancel(w http.ResponseWriter, r *http.Request, u *beUser) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, found := b.orders[pathID(r)]
	if !found || (u.Role != "admin" && o.UserID != u.ID) {
		response.Reject(w, 404, "order not found")
		return
	}
	if o.Status != 1 && o.Status != 2 {
		response.Reject(w, 400, "order cannot be cancelled")
		return
	}
	o.Status = 5
	response.OK(w, "cancelled", nil)
}

// ─── Statistics ───────────────────────────────────────────────────────────────

func (b *Backend) statistics(w http.ResponseWriter, _ *http.Request, _ *beUser) {
	b.mu.Lock()
	defer b.mu.Unlock()

	today := b.now().Format("2006-01-02")
	var users, todayOrders int
	total, todaySales := decimal.Zero, decimal.Zero
	for _, u := range b.users {
		if u.Role == "user" {
			users++
		}
	}
	for _, o := range b.orders {
		isToday := o.CreatedAt.Format("2006-01-02") == today
		if isToday {
			todayOrders++
		}
		if o.Status >= 2 && o.Status <= 4 {
			total = total.Add(o.Total)
			if isToday {
				todaySales = todaySales.Add(o.Total)
			}
		}
	}

	var dishes []*beDish
	for _, d := range b.dishes {
		if d.Status == 1 {
			dishes = append(dishes, d)
		}
	}
	sort.Slice(dishes, func(i, j int) bool {
		if dishes[i].Sales != dishes[j].Sales {
			return dishes[i].Sales > dishes[j].Sales
		}
		return dishes[i].ID < dishes[j].ID
	})
	hot := []map[string]interface{}{}
	for _, d := range slice(dishes, 1, 5) {
		hot = append(hot, map[string]interface{}{"id": d.ID, "name": d.Name, "price": money(d.Price), "sales": d.Sales})
	}

	response.OK(w, "success", map[string]interface{}{
		"user_count":        users,
		"order_count":       len(b.orders),
		"today_order_count": todayOrders,
		"total_sales":       money(total),
		"today_sales":       money(todaySales),
		"hot_dishes":        hot,
	})
}
