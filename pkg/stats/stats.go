// Package stats reads the admin dashboard figures.
package stats

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/canteen/pkg/gateway"
)

// HotDish is one of the best-selling on-sale dishes.
type HotDish struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Sales int             `json:"sales"`
}

// Overview is the dashboard summary. Sales count paid, delivering and
// completed orders only.
type Overview struct {
	UserCount       int             `json:"user_count"`
	OrderCount      int             `json:"order_count"`
	TodayOrderCount int             `json:"today_order_count"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TodaySales      decimal.Decimal `json:"today_sales"`
	HotDishes       []HotDish       `json:"hot_dishes"`
}

type Service struct {
	gw *gateway.Gateway
}

func New(gw *gateway.Gateway) *Service { return &Service{gw: gw} }

// Overview fetches the figures (admin).
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	env, err := s.gw.Call(ctx, gateway.Request{
		Path:         "/statistics/overview",
		Method:       http.MethodGet,
		RequiresAuth: true,
	})
	if err != nil {
		return Overview{}, err
	}
	return gateway.Decode[Overview](env)
}
