package event

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

// 單一 session 只有一台購物車
const CartAggregateID = "cart:session"

type CartChangedEvent struct {
	BaseEvent
	Items     []model.LineItem `json:"items"`
	Coupon    *string          `json:"coupon"`
	ItemCount int              `json:"itemCount"`
}

func NewCartChangedEvent(snapshot model.CartSnapshot) *CartChangedEvent {
	count := 0
	for _, item := range snapshot.Items {
		count += item.Quantity
	}
	return &CartChangedEvent{
		BaseEvent: *NewBaseEvent(CartAggregateID, CartChangedEventName),
		Items:     snapshot.Items,
		Coupon:    snapshot.Coupon,
		ItemCount: count,
	}
}

func (e *CartChangedEvent) Type() EventType {
	return CartChangedEventName
}
