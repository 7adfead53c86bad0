package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus: производный статус заказа, в хранилище не сохраняется.
type OrderStatus string

const (
	// OrderStatusUpcoming: работа по заказу ещё не начата.
	OrderStatusUpcoming OrderStatus = "Upcoming"
	// OrderStatusInProgress: заказ взят в работу (startedAt заполнен).
	OrderStatusInProgress OrderStatus = "InProgress"
	// OrderStatusDone: заказ завершён (finishedAt заполнен).
	OrderStatusDone OrderStatus = "Done"
)

// DefaultUnit подставляется в позицию, если у товара не задана единица измерения.
const DefaultUnit = "pcs"

// DeriveStatus вычисляет статус по отметкам времени: finishedAt важнее startedAt.
func DeriveStatus(startedAt, finishedAt *time.Time) OrderStatus {
	switch {
	case finishedAt != nil:
		return OrderStatusDone
	case startedAt != nil:
		return OrderStatusInProgress
	default:
		return OrderStatusUpcoming
	}
}

// Partner: контрагент, на которого оформляется заказ.
type Partner struct {
	ID        string
	Name      string
	IsDeleted bool
	CreatedAt time.Time
}

// Product: товар каталога. Цены, единица и изображение могут быть не заданы.
type Product struct {
	ID        string
	Name      string
	BuyPrice  decimal.NullDecimal
	SellPrice decimal.NullDecimal
	Image     *string
	Unit      *string
	IsDeleted bool
	CreatedAt time.Time
}

// PriceOrZero возвращает цену или ноль, если она не задана.
func PriceOrZero(price decimal.NullDecimal) decimal.Decimal {
	if !price.Valid {
		return decimal.Zero
	}
	return price.Decimal
}

// UnitOrDefault возвращает единицу товара либо DefaultUnit.
func (p Product) UnitOrDefault() string {
	if p.Unit == nil || *p.Unit == "" {
		return DefaultUnit
	}
	return *p.Unit
}

// OrderItem: позиция заказа. Image и Unit копируются из товара на момент создания.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	Quantity       int
	TotalBuyPrice  decimal.Decimal
	TotalSellPrice decimal.Decimal
	Image          *string
	Unit           string
	IsDeleted      bool
	CreatedAt      time.Time
	// Product заполняется только при чтении с раскрытием товара.
	Product *Product
}

// Order агрегирует заказ, его позиции и партнёра.
type Order struct {
	ID             string
	Date           time.Time
	PartnerID      string
	Note           *string
	TotalBuyPrice  decimal.Decimal
	TotalSellPrice decimal.Decimal
	CreatedAt      time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
	IsDeleted      bool
	Items          []OrderItem
	Partner        *Partner
	// Status не хранится, его выставляет AttachStatus.
	Status OrderStatus
}

// AttachStatus заполняет Status по отметкам времени заказа.
func (o *Order) AttachStatus() {
	o.Status = DeriveStatus(o.StartedAt, o.FinishedAt)
}

// ItemsTotals суммирует итоги позиций заказа.
func (o *Order) ItemsTotals() (buy, sell decimal.Decimal) {
	buy, sell = decimal.Zero, decimal.Zero
	for _, item := range o.Items {
		buy = buy.Add(item.TotalBuyPrice)
		sell = sell.Add(item.TotalSellPrice)
	}
	return buy, sell
}
