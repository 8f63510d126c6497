package event

import (
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

type OrderCommittedEvent struct {
	BaseEvent
	Order model.Order `json:"order"`
}

func NewOrderCommittedEvent(order model.Order) *OrderCommittedEvent {
	return &OrderCommittedEvent{
		BaseEvent: *NewBaseEvent(OrderAggregateID(order.ID), OrderCommittedEventName),
		Order:     order,
	}
}

func (e *OrderCommittedEvent) Type() EventType {
	return OrderCommittedEventName
}

func OrderAggregateID(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}
