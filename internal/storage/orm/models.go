package orm

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

type partnerModel struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"not null;default:''"`
	IsDeleted bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (partnerModel) TableName() string { return "partners" }

type productModel struct {
	ID        string              `gorm:"primaryKey;type:varchar(36)"`
	Name      string              `gorm:"not null;default:''"`
	BuyPrice  decimal.NullDecimal `gorm:"type:numeric(18,2)"`
	SellPrice decimal.NullDecimal `gorm:"type:numeric(18,2)"`
	Image     *string
	Unit      *string
	IsDeleted bool `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (productModel) TableName() string { return "products" }

type orderModel struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	Date           time.Time
	PartnerID      string `gorm:"type:varchar(36);index;not null"`
	Note           *string
	TotalBuyPrice  decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	TotalSellPrice decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	CreatedAt      time.Time       `gorm:"index"`
	StartedAt      *time.Time
	FinishedAt     *time.Time
	IsDeleted      bool             `gorm:"not null;default:false"`
	Items          []orderItemModel `gorm:"foreignKey:OrderID"`
	Partner        *partnerModel    `gorm:"foreignKey:PartnerID"`
}

func (orderModel) TableName() string { return "orders" }

type orderItemModel struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)"`
	OrderID        string          `gorm:"type:varchar(36);index;not null"`
	ProductID      string          `gorm:"type:varchar(36);not null"`
	Quantity       int             `gorm:"not null"`
	TotalBuyPrice  decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	TotalSellPrice decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Image          *string
	Unit           string `gorm:"not null;default:'pcs'"`
	IsDeleted      bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	Product        *productModel `gorm:"foreignKey:ProductID"`
}

func (orderItemModel) TableName() string { return "order_items" }

type outboxModel struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	AggregateType string `gorm:"not null"`
	AggregateID   string `gorm:"not null"`
	EventType     string `gorm:"not null"`
	Payload       []byte
	Status        string `gorm:"not null;index"`
	AttemptCount  int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (outboxModel) TableName() string { return "outbox_messages" }

func partnerFromModel(m partnerModel) domain.Partner {
	return domain.Partner{
		ID:        m.ID,
		Name:      m.Name,
		IsDeleted: m.IsDeleted,
		CreatedAt: m.CreatedAt,
	}
}

func partnerToModel(p domain.Partner) partnerModel {
	return partnerModel{
		ID:        p.ID,
		Name:      p.Name,
		IsDeleted: p.IsDeleted,
		CreatedAt: p.CreatedAt,
	}
}

func productFromModel(m productModel) domain.Product {
	return domain.Product{
		ID:        m.ID,
		Name:      m.Name,
		BuyPrice:  m.BuyPrice,
		SellPrice: m.SellPrice,
		Image:     m.Image,
		Unit:      m.Unit,
		IsDeleted: m.IsDeleted,
		CreatedAt: m.CreatedAt,
	}
}

func productToModel(p domain.Product) productModel {
	return productModel{
		ID:        p.ID,
		Name:      p.Name,
		BuyPrice:  p.BuyPrice,
		SellPrice: p.SellPrice,
		Image:     p.Image,
		Unit:      p.Unit,
		IsDeleted: p.IsDeleted,
		CreatedAt: p.CreatedAt,
	}
}

func orderFromModel(m orderModel) domain.Order {
	order := domain.Order{
		ID:             m.ID,
		Date:           m.Date,
		PartnerID:      m.PartnerID,
		Note:           m.Note,
		TotalBuyPrice:  m.TotalBuyPrice,
		TotalSellPrice: m.TotalSellPrice,
		CreatedAt:      m.CreatedAt,
		StartedAt:      m.StartedAt,
		FinishedAt:     m.FinishedAt,
		IsDeleted:      m.IsDeleted,
		Items:          make([]domain.OrderItem, 0, len(m.Items)),
	}
	if m.Partner != nil {
		partner := partnerFromModel(*m.Partner)
		order.Partner = &partner
	}
	for _, item := range m.Items {
		order.Items = append(order.Items, orderItemFromModel(item))
	}
	return order
}

func orderToModel(o domain.Order) orderModel {
	m := orderModel{
		ID:             o.ID,
		Date:           o.Date,
		PartnerID:      o.PartnerID,
		Note:           o.Note,
		TotalBuyPrice:  o.TotalBuyPrice,
		TotalSellPrice: o.TotalSellPrice,
		CreatedAt:      o.CreatedAt,
		StartedAt:      o.StartedAt,
		FinishedAt:     o.FinishedAt,
		IsDeleted:      o.IsDeleted,
		Items:          make([]orderItemModel, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		m.Items = append(m.Items, orderItemModel{
			ID:             item.ID,
			OrderID:        o.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			TotalBuyPrice:  item.TotalBuyPrice,
			TotalSellPrice: item.TotalSellPrice,
			Image:          item.Image,
			Unit:           item.Unit,
			IsDeleted:      item.IsDeleted,
			CreatedAt:      item.CreatedAt,
		})
	}
	return m
}

func orderItemFromModel(m orderItemModel) domain.OrderItem {
	item := domain.OrderItem{
		ID:             m.ID,
		OrderID:        m.OrderID,
		ProductID:      m.ProductID,
		Quantity:       m.Quantity,
		TotalBuyPrice:  m.TotalBuyPrice,
		TotalSellPrice: m.TotalSellPrice,
		Image:          m.Image,
		Unit:           m.Unit,
		IsDeleted:      m.IsDeleted,
		CreatedAt:      m.CreatedAt,
	}
	if m.Product != nil {
		product := productFromModel(*m.Product)
		item.Product = &product
	}
	return item
}
