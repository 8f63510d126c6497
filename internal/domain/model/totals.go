package model

import "github.com/shopspring/decimal"

// Totals 由 pricing 計算得出，不單獨儲存
// Total == Subtotal - Discount + Tax + Shipping
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	Tax           decimal.Decimal `json:"tax"`
	Shipping      decimal.Decimal `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
}

// Rounded 呈現用，全部欄位取到小數兩位
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:      t.Subtotal.Round(2),
		Discount:      t.Discount.Round(2),
		TaxableAmount: t.TaxableAmount.Round(2),
		Tax:           t.Tax.Round(2),
		Shipping:      t.Shipping.Round(2),
		Total:         t.Total.Round(2),
	}
}
