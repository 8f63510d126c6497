package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidLineItem = errors.New("invalid line item")

// LineItem 購物車內單一商品
// Name 為識別鍵，同名商品視為同一項
type LineItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// NewLineItem 建立並驗證 LineItem
// name 不可為空、unitPrice 不可為負、quantity 至少為 1
func NewLineItem(name string, unitPrice decimal.Decimal, quantity int) (LineItem, error) {
	if err := ValidateItem(name, unitPrice); err != nil {
		return LineItem{}, err
	}
	if quantity < 1 {
		return LineItem{}, fmt.Errorf("%w: quantity %d of %q must be at least 1", ErrInvalidLineItem, quantity, name)
	}
	return LineItem{
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}, nil
}

// ValidateItem 檢查名稱與單價
func ValidateItem(name string, unitPrice decimal.Decimal) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLineItem)
	}
	if unitPrice.IsNegative() {
		return fmt.Errorf("%w: price %s of %q is negative", ErrInvalidLineItem, unitPrice.String(), name)
	}
	return nil
}

// Amount 單價 x 數量，不做四捨五入
func (i LineItem) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
