package dto

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

type AddItemDTO struct {
	Name string `json:"name"`
	// 未提供時使用商品目錄價格
	Price *decimal.Decimal `json:"price,omitempty"`
}

type SetQuantityDTO struct {
	Quantity *int `json:"quantity"`
}

type ApplyCouponDTO struct {
	Code string `json:"code"`
}

// FormattedTotals 顯示用字串，例如 $12.50
type FormattedTotals struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Tax      string `json:"tax"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

type CartView struct {
	Items     []model.LineItem `json:"items"`
	Coupon    *string          `json:"coupon"`
	ItemCount int              `json:"itemCount"`
	Locked    bool             `json:"locked"`
	Totals    model.Totals     `json:"totals"`
	Formatted FormattedTotals  `json:"formatted"`
}

func NewCartView(snapshot model.CartSnapshot, totals model.Totals, locked bool, engine *pricing.Engine) CartView {
	count := 0
	for _, item := range snapshot.Items {
		count += item.Quantity
	}
	rounded := totals.Rounded()
	return CartView{
		Items:     snapshot.Items,
		Coupon:    snapshot.Coupon,
		ItemCount: count,
		Locked:    locked,
		Totals:    rounded,
		Formatted: FormattedTotals{
			Subtotal: engine.Format(rounded.Subtotal),
			Discount: engine.Format(rounded.Discount),
			Tax:      engine.Format(rounded.Tax),
			Shipping: engine.Format(rounded.Shipping),
			Total:    engine.Format(rounded.Total),
		},
	}
}
