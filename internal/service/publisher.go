package service

import (
	"time"

	"foodcourt-ordering/internal/model"
)

// Publisher fans order status changes out to listeners such as kitchen screens.
type Publisher interface {
	Publish(event model.OrderEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.OrderEvent) {}

func orderEvent(order *model.Order, status model.OrderStatus) model.OrderEvent {
	return model.OrderEvent{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		FoodCourtID: order.FoodCourtID,
		Status:      status,
		At:          time.Now().UTC().Format(time.RFC3339),
	}
}
