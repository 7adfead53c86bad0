package httpapi

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/i18n"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
)

// envelope: общий формат всех ответов API.
type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Ключи тела запроса на создание заказа. Сравниваются точно, с учётом регистра.
const (
	fieldDate       = "date"
	fieldPartnerID  = "partnerId"
	fieldNote       = "note"
	fieldOrderItems = "orderItems"
)

// createOrderRequest: тело запроса как набор сырых полей. Типы проверяет
// сервис заказов.
type createOrderRequest map[string]json.RawMessage

// toInput читает только известные ключи. Note, переданный не строкой, делает
// запрос нечитаемым.
func (r createOrderRequest) toInput() (orders.CreateOrderInput, error) {
	var note *string
	if raw, ok := r[fieldNote]; ok {
		if err := json.Unmarshal(raw, &note); err != nil {
			return orders.CreateOrderInput{}, err
		}
	}
	return orders.CreateOrderInput{
		Date:       scalarText(r[fieldDate]),
		PartnerID:  scalarText(r[fieldPartnerID]),
		Note:       note,
		OrderItems: r[fieldOrderItems],
	}, nil
}

// scalarText сводит JSON-значение к строке. Ложные значения (null, false, 0, "")
// дают пустую строку, т.е. "поле не передано".
func scalarText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return ""
	}
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
	case float64:
		if v == 0 {
			return ""
		}
	}
	return strings.TrimSpace(string(trimmed))
}

type partnerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type productResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	BuyPrice  *json.Number `json:"buyPrice"`
	SellPrice *json.Number `json:"sellPrice"`
	Image     *string      `json:"image"`
	Unit      *string      `json:"unit"`
}

type orderItemResponse struct {
	ID             string           `json:"id"`
	OrderID        string           `json:"orderId"`
	ProductID      string           `json:"productId"`
	Quantity       int              `json:"quantity"`
	TotalBuyPrice  json.Number      `json:"totalBuyPrice"`
	TotalSellPrice json.Number      `json:"totalSellPrice"`
	Image          *string          `json:"image"`
	Unit           string           `json:"unit"`
	CreatedAt      time.Time        `json:"createdAt"`
	Product        *productResponse `json:"product,omitempty"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	Date           time.Time           `json:"date"`
	PartnerID      string              `json:"partnerId"`
	Note           *string             `json:"note"`
	TotalBuyPrice  json.Number         `json:"totalBuyPrice"`
	TotalSellPrice json.Number         `json:"totalSellPrice"`
	CreatedAt      time.Time           `json:"createdAt"`
	StartedAt      *time.Time          `json:"startedAt"`
	FinishedAt     *time.Time          `json:"finishedAt"`
	Status         domain.OrderStatus  `json:"status"`
	StatusLabel    string              `json:"statusLabel"`
	Partner        *partnerResponse    `json:"partner,omitempty"`
	Items          []orderItemResponse `json:"orderItems"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func nullMoney(d decimal.NullDecimal) *json.Number {
	if !d.Valid {
		return nil
	}
	n := money(d.Decimal)
	return &n
}

func toOrderResponse(order domain.Order, localizer *i18n.Localizer, lang string) orderResponse {
	resp := orderResponse{
		ID:             order.ID,
		Date:           order.Date,
		PartnerID:      order.PartnerID,
		Note:           order.Note,
		TotalBuyPrice:  money(order.TotalBuyPrice),
		TotalSellPrice: money(order.TotalSellPrice),
		CreatedAt:      order.CreatedAt,
		StartedAt:      order.StartedAt,
		FinishedAt:     order.FinishedAt,
		Status:         order.Status,
		StatusLabel:    localizer.StatusLabel(lang, order.Status),
		Items:          make([]orderItemResponse, 0, len(order.Items)),
	}
	if order.Partner != nil {
		resp.Partner = &partnerResponse{ID: order.Partner.ID, Name: order.Partner.Name}
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, toOrderItemResponse(item))
	}
	return resp
}

func toOrderItemResponse(item domain.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:             item.ID,
		OrderID:        item.OrderID,
		ProductID:      item.ProductID,
		Quantity:       item.Quantity,
		TotalBuyPrice:  money(item.TotalBuyPrice),
		TotalSellPrice: money(item.TotalSellPrice),
		Image:          item.Image,
		Unit:           item.Unit,
		CreatedAt:      item.CreatedAt,
	}
	if p := item.Product; p != nil {
		resp.Product = &productResponse{
			ID:        p.ID,
			Name:      p.Name,
			BuyPrice:  nullMoney(p.BuyPrice),
			SellPrice: nullMoney(p.SellPrice),
			Image:     p.Image,
			Unit:      p.Unit,
		}
	}
	return resp
}
