package model

import "time"

// Order 結帳當下的不可變快照
// 建立後不會再被修改
type Order struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Items     []LineItem    `json:"items"`
	Coupon    *string       `json:"coupon"`
	Totals    Totals        `json:"totals"`
	Customer  *CustomerInfo `json:"customer,omitempty"`
}

func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
