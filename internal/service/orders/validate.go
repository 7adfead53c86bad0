package orders

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// acceptedDateLayouts: форматы даты заказа. Форматы без зоны трактуются в UTC.
var acceptedDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// maxItemQuantity совпадает с пределом колонки quantity INTEGER.
const maxItemQuantity = math.MaxInt32

// CreateOrderInput: сырой запрос на создание заказа.
type CreateOrderInput struct {
	Date       string
	PartnerID  string
	Note       *string
	OrderItems json.RawMessage
}

// Разрешённые ключи позиции. Ключи сравниваются точно, с учётом регистра;
// остальные ключи отбрасываются.
const (
	itemKeyProductID = "productId"
	itemKeyQuantity  = "quantity"
)

type requestedItem struct {
	productID string
	quantity  int64
}

type validatedInput struct {
	date       time.Time
	partnerID  string
	note       *string
	items      []requestedItem
	productIDs []string
}

// validateShape выполняет проверки формы запроса по порядку, первая ошибка побеждает.
func validateShape(in CreateOrderInput, now time.Time) (validatedInput, error) {
	dateRaw := strings.TrimSpace(in.Date)
	partnerID := strings.TrimSpace(in.PartnerID)
	if dateRaw == "" || partnerID == "" || isFalsyJSON(in.OrderItems) {
		return validatedInput{}, domain.ErrFieldsRequired
	}

	date, ok := parseDate(dateRaw)
	if !ok {
		return validatedInput{}, domain.ErrInvalidDate
	}
	if date.Before(now) {
		return validatedInput{}, domain.ErrDateInPast
	}

	var rawItems []json.RawMessage
	trimmed := bytes.TrimSpace(in.OrderItems)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return validatedInput{}, domain.ErrInvalidItemsFormat
	}
	if err := json.Unmarshal(trimmed, &rawItems); err != nil {
		return validatedInput{}, domain.ErrInvalidItemsFormat
	}
	if len(rawItems) == 0 {
		return validatedInput{}, domain.ErrEmptyItems
	}

	items := make([]requestedItem, 0, len(rawItems))
	productIDs := make([]string, 0, len(rawItems))
	seen := make(map[string]struct{}, len(rawItems))
	for _, raw := range rawItems {
		item, err := parseItem(raw)
		if err != nil {
			return validatedInput{}, err
		}
		items = append(items, item)
		if _, dup := seen[item.productID]; !dup {
			seen[item.productID] = struct{}{}
			productIDs = append(productIDs, item.productID)
		}
	}

	return validatedInput{
		date:       date,
		partnerID:  partnerID,
		note:       in.Note,
		items:      items,
		productIDs: productIDs,
	}, nil
}

func parseItem(raw json.RawMessage) (requestedItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return requestedItem{}, domain.ErrInvalidItemsFormat
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return requestedItem{}, domain.ErrInvalidItemsFormat
	}

	var (
		productID string
		rawQty    json.Number
	)
	if value, ok := fields[itemKeyProductID]; ok {
		if err := json.Unmarshal(value, &productID); err != nil {
			return requestedItem{}, domain.ErrInvalidItemsFormat
		}
	}
	if value, ok := fields[itemKeyQuantity]; ok {
		if err := json.Unmarshal(value, &rawQty); err != nil {
			return requestedItem{}, domain.ErrInvalidItemsFormat
		}
	}

	productID = strings.TrimSpace(productID)
	if productID == "" || rawQty == "" {
		return requestedItem{}, domain.ErrInvalidItemsFormat
	}
	quantity, err := rawQty.Int64()
	if err != nil || quantity <= 0 || quantity > maxItemQuantity {
		return requestedItem{}, domain.ErrInvalidItemsFormat
	}

	return requestedItem{productID: productID, quantity: quantity}, nil
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range acceptedDateLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// isFalsyJSON повторяет правило "поле не передано": отсутствие, null, false, 0 и "".
func isFalsyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return false
	}
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return v == ""
	default:
		return false
	}
}
