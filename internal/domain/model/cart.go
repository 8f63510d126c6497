package model

import "sort"

// Cart name -> LineItem
// 順序無意義，需要序列時一律依名稱排序
type Cart map[string]LineItem

func NewCart() Cart {
	return make(Cart)
}

func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// ItemCount 所有商品數量加總
func (c Cart) ItemCount() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

// Clone 深拷貝，LineItem 為值型別
func (c Cart) Clone() Cart {
	cp := make(Cart, len(c))
	for k, v := range c {
		cp[k] = v
	}
	return cp
}

// Items 依名稱排序的商品複本
func (c Cart) Items() []LineItem {
	items := make([]LineItem, 0, len(c))
	for _, item := range c {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}

// CartSnapshot 某一時間點的購物車狀態，交給 observer 與 pricing 使用
type CartSnapshot struct {
	Items  []LineItem `json:"items"`
	Coupon *string    `json:"coupon"`
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

func (s CartSnapshot) CouponCode() string {
	if s.Coupon == nil {
		return ""
	}
	return *s.Coupon
}

// CouponPtr 空字串代表沒有 coupon
func CouponPtr(code string) *string {
	if code == "" {
		return nil
	}
	return &code
}
