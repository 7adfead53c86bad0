package orders

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// maxAmount: верхняя граница суммы, которую вмещает колонка NUMERIC(18,2).
var maxAmount = decimal.New(1, 16)

// priceItems считает позиции в порядке запроса и накапливает итоги заказа.
// Незаданные цены считаются нулём, единица по умолчанию: domain.DefaultUnit.
// Сумма позиции или итог вне maxAmount означает неверный формат позиций.
func priceItems(items []requestedItem, products map[string]domain.Product) (lines []domain.OrderItem, totalBuy, totalSell decimal.Decimal, err error) {
	totalBuy, totalSell = decimal.Zero, decimal.Zero
	lines = make([]domain.OrderItem, 0, len(items))

	for _, item := range items {
		product := products[item.productID]
		qty := decimal.NewFromInt(item.quantity)
		lineBuy := domain.PriceOrZero(product.BuyPrice).Mul(qty)
		lineSell := domain.PriceOrZero(product.SellPrice).Mul(qty)

		totalBuy = totalBuy.Add(lineBuy)
		totalSell = totalSell.Add(lineSell)
		if !fitsAmount(lineBuy, lineSell, totalBuy, totalSell) {
			return nil, decimal.Zero, decimal.Zero, domain.ErrInvalidItemsFormat
		}

		lines = append(lines, domain.OrderItem{
			ProductID:      item.productID,
			Quantity:       int(item.quantity),
			TotalBuyPrice:  lineBuy,
			TotalSellPrice: lineSell,
			Image:          product.Image,
			Unit:           product.UnitOrDefault(),
		})
	}

	return lines, totalBuy, totalSell, nil
}

func fitsAmount(amounts ...decimal.Decimal) bool {
	for _, amount := range amounts {
		if amount.Abs().GreaterThanOrEqual(maxAmount) {
			return false
		}
	}
	return true
}
