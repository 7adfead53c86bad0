package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// AggregateTypeOrder: тип агрегата для outbox-сообщений заказа.
	AggregateTypeOrder = "order"
	// EventTypeOrderCreated публикуется после успешного создания заказа.
	EventTypeOrderCreated = "order.created"
)

// OrderCreatedEvent: полезная нагрузка события order.created.
type OrderCreatedEvent struct {
	OrderID        string          `json:"order_id"`
	PartnerID      string          `json:"partner_id"`
	Date           time.Time       `json:"date"`
	TotalBuyPrice  decimal.Decimal `json:"total_buy_price"`
	TotalSellPrice decimal.Decimal `json:"total_sell_price"`
	ItemCount      int             `json:"item_count"`
	Status         OrderStatus     `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewOrderCreatedEvent собирает событие из только что созданного заказа.
func NewOrderCreatedEvent(order Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:        order.ID,
		PartnerID:      order.PartnerID,
		Date:           order.Date,
		TotalBuyPrice:  order.TotalBuyPrice,
		TotalSellPrice: order.TotalSellPrice,
		ItemCount:      len(order.Items),
		Status:         OrderStatusUpcoming,
		CreatedAt:      order.CreatedAt,
	}
}
