package services

import (
	"bakehouse/internal/models"
	"bakehouse/pkg/websocket"
)

// EventBroadcaster pushes realtime events to connected websocket clients.
type EventBroadcaster interface {
	Broadcast(room, msgType string, data interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, string, interface{}) {}

type orderEvent struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	CustomerID  string             `json:"customer_id"`
	Status      models.OrderStatus `json:"status"`
	Total       string             `json:"total"`
	Currency    string             `json:"currency"`
}

// publishOrder sends the event to the admin feed and to the customer's own
// sockets.
func publishOrder(b EventBroadcaster, eventType string, order *models.Order) {
	ev := orderEvent{
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID.Hex(),
		Status:      order.Status,
		Total:       order.TotalAmount.StringFixed(2),
		Currency:    order.Currency,
	}
	b.Broadcast(websocket.RoomAdmins, eventType, ev)
	b.Broadcast(websocket.CustomerRoom(order.CustomerID.Hex()), eventType, ev)
}

