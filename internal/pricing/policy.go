package pricing

import "github.com/shopspring/decimal"

// Policy 定價規則，由 config 載入
type Policy struct {
	CouponCode            string
	CouponRate            decimal.Decimal
	TaxEnabled            bool
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	CurrencySymbol        string
}

func DefaultPolicy() Policy {
	return Policy{
		CouponCode:            "SALE25",
		CouponRate:            decimal.RequireFromString("0.25"),
		TaxEnabled:            true,
		TaxRate:               decimal.RequireFromString("0.07"),
		FreeShippingThreshold: decimal.RequireFromString("50.00"),
		FlatShippingFee:       decimal.RequireFromString("4.99"),
		CurrencySymbol:        "$",
	}
}
