package dto

import (
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pricing"
)

type CheckoutDTO struct {
	Mode     string              `json:"mode,omitempty"`
	Customer *model.CustomerInfo `json:"customer,omitempty"`
}

type CheckoutResponse struct {
	Mode        string       `json:"mode"`
	Order       *OrderView   `json:"order,omitempty"`
	RedirectURL string       `json:"redirectUrl,omitempty"`
	Totals      model.Totals `json:"totals"`
}

type OrderView struct {
	ID             string           `json:"id"`
	Timestamp      time.Time        `json:"timestamp"`
	Items          []model.LineItem `json:"items"`
	Coupon         *string          `json:"coupon"`
	ItemCount      int              `json:"itemCount"`
	Totals         model.Totals     `json:"totals"`
	FormattedTotal string           `json:"formattedTotal"`
}

func NewOrderView(order model.Order, engine *pricing.Engine) OrderView {
	return OrderView{
		ID:             order.ID,
		Timestamp:      order.Timestamp,
		Items:          order.Items,
		Coupon:         order.Coupon,
		ItemCount:      order.ItemCount(),
		Totals:         order.Totals.Rounded(),
		FormattedTotal: engine.Format(order.Totals.Total),
	}
}
