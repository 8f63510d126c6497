package pricing

import (
	"fmt"
	"sync"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

/*
計算流程:

	subtotal      = Σ unitPrice * quantity
	discount      = subtotal * couponRate (僅限唯一認得的 coupon)
	taxableAmount = subtotal - discount
	tax           = taxableAmount * taxRate (可關閉)
	shipping      = taxableAmount >= 門檻 ? 0 : 運費
	total         = subtotal - discount + tax + shipping，最後一步才取兩位

中間值保持完整精度
*/
type Engine struct {
	mu     sync.RWMutex
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy 目前規則的複本
func (e *Engine) Policy() Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy
}

// SetPolicy config 熱更新時替換規則
func (e *Engine) SetPolicy(policy Policy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policy = policy
}

func Subtotal(items []model.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount())
	}
	return sum
}

// Discount 不認得的 coupon 直接回 0，不視為錯誤
func (e *Engine) Discount(subtotal decimal.Decimal, coupon string) decimal.Decimal {
	return discount(e.Policy(), subtotal, coupon)
}

// Shipping amount 為折扣後金額
func (e *Engine) Shipping(amount decimal.Decimal) decimal.Decimal {
	return shipping(e.Policy(), amount)
}

func (e *Engine) Tax(taxableAmount decimal.Decimal) decimal.Decimal {
	return tax(e.Policy(), taxableAmount)
}

func Total(subtotal, discount, tax, shipping decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(tax).Add(shipping).Round(2)
}

// Compute 組合完整 Totals
// 空購物車全部為 0，不收運費
func (e *Engine) Compute(items []model.LineItem, coupon string) model.Totals {
	if len(items) == 0 {
		return model.Totals{
			Subtotal:      decimal.Zero,
			Discount:      decimal.Zero,
			TaxableAmount: decimal.Zero,
			Tax:           decimal.Zero,
			Shipping:      decimal.Zero,
			Total:         decimal.Zero,
		}
	}

	p := e.Policy()

	subtotal := Subtotal(items)
	d := discount(p, subtotal, coupon)
	taxable := subtotal.Sub(d)
	t := tax(p, taxable)
	s := shipping(p, taxable)

	return model.Totals{
		Subtotal:      subtotal,
		Discount:      d,
		TaxableAmount: taxable,
		Tax:           t,
		Shipping:      s,
		Total:         Total(subtotal, d, t, s),
	}
}

// ComputeSnapshot 方便 service 直接傳入快照
func (e *Engine) ComputeSnapshot(snapshot model.CartSnapshot) model.Totals {
	return e.Compute(snapshot.Items, snapshot.CouponCode())
}

// Format 金額顯示，例如 $12.50
func (e *Engine) Format(v decimal.Decimal) string {
	return Format(e.Policy().CurrencySymbol, v)
}

func Format(symbol string, v decimal.Decimal) string {
	return fmt.Sprintf("%s%s", symbol, v.StringFixed(2))
}

func discount(p Policy, subtotal decimal.Decimal, coupon string) decimal.Decimal {
	if coupon == "" || coupon != p.CouponCode {
		return decimal.Zero
	}
	return subtotal.Mul(p.CouponRate)
}

func shipping(p Policy, amount decimal.Decimal) decimal.Decimal {
	if amount.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatShippingFee
}

func tax(p Policy, taxableAmount decimal.Decimal) decimal.Decimal {
	if !p.TaxEnabled {
		return decimal.Zero
	}
	return taxableAmount.Mul(p.TaxRate)
}
