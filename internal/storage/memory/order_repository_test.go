package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/memory"
)

func newOrder(id string, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:             id,
		Date:           createdAt.Add(24 * time.Hour),
		PartnerID:      "partner-1",
		TotalBuyPrice:  decimal.NewFromInt(20),
		TotalSellPrice: decimal.NewFromInt(40),
		CreatedAt:      createdAt,
		Items: []domain.OrderItem{
			{
				ID:             id + "-item-1",
				ProductID:      "product-1",
				Quantity:       2,
				TotalBuyPrice:  decimal.NewFromInt(20),
				TotalSellPrice: decimal.NewFromInt(40),
				Unit:           "pcs",
				CreatedAt:      createdAt,
			},
		},
	}
}

func newCatalog(t *testing.T) *memory.CatalogRepository {
	t.Helper()

	catalog := memory.NewCatalogRepository()
	ctx := context.Background()
	require.NoError(t, catalog.UpsertPartner(ctx, domain.Partner{ID: "partner-1", Name: "Toko Maju"}))
	require.NoError(t, catalog.UpsertProduct(ctx, domain.Product{
		ID:        "product-1",
		Name:      "Kopi",
		BuyPrice:  decimal.NewNullDecimal(decimal.NewFromInt(10)),
		SellPrice: decimal.NewNullDecimal(decimal.NewFromInt(20)),
	}))
	return catalog
}

func TestOrderRepository_CreateGet(t *testing.T) {
	repo := memory.NewOrderRepository(newCatalog(t), nil)
	order := newOrder("order-1", time.Now().UTC())

	require.NoError(t, repo.Create(context.Background(), order))

	stored, err := repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, stored.ID)
	require.Len(t, stored.Items, 1)
	require.Equal(t, order.ID, stored.Items[0].OrderID)
	require.NotNil(t, stored.Items[0].Product, "get must expand product detail")
	require.Equal(t, "Kopi", stored.Items[0].Product.Name)
	require.NotNil(t, stored.Partner)
	require.Equal(t, "Toko Maju", stored.Partner.Name)
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	repo := memory.NewOrderRepository(nil, nil)
	order := newOrder("order-1", time.Now().UTC())

	require.NoError(t, repo.Create(context.Background(), order))
	err := repo.Create(context.Background(), order)
	require.True(t, errors.Is(err, domain.ErrOrderAlreadyExists))
}

func TestOrderRepository_GetSoftDeleted(t *testing.T) {
	repo := memory.NewOrderRepository(nil, nil)
	order := newOrder("order-deleted", time.Now().UTC())
	order.IsDeleted = true
	require.NoError(t, repo.Create(context.Background(), order))

	_, err := repo.Get(context.Background(), order.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_ListOrderingAndFilters(t *testing.T) {
	repo := memory.NewOrderRepository(newCatalog(t), nil)
	ctx := context.Background()
	base := time.Now().UTC()

	older := newOrder("order-old", base.Add(-time.Hour))
	newer := newOrder("order-new", base)
	newer.Items = append(newer.Items, domain.OrderItem{
		ID:        "order-new-item-deleted",
		ProductID: "product-1",
		Quantity:  1,
		IsDeleted: true,
	})
	deleted := newOrder("order-deleted", base.Add(time.Hour))
	deleted.IsDeleted = true

	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, deleted))

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "order-new", orders[0].ID)
	require.Equal(t, "order-old", orders[1].ID)
	require.Len(t, orders[0].Items, 1, "deleted items must be hidden")
	require.NotNil(t, orders[0].Partner)
	require.Nil(t, orders[0].Items[0].Product, "list does not expand products")
}

func TestOrderRepository_CreateEnqueuesEvents(t *testing.T) {
	outbox := memory.NewOutboxRepository()
	repo := memory.NewOrderRepository(nil, outbox)

	err := repo.Create(context.Background(), newOrder("order-1", time.Now().UTC()), domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.created",
		Payload:       []byte(`{}`),
	})
	require.NoError(t, err)

	pending := outbox.AllPending()
	require.Len(t, pending, 1)
	require.Equal(t, "order-1", pending[0].AggregateID)
	require.NotEmpty(t, pending[0].ID)
}

func TestCatalogRepository_FindProducts(t *testing.T) {
	catalog := newCatalog(t)
	ctx := context.Background()
	require.NoError(t, catalog.UpsertProduct(ctx, domain.Product{ID: "product-deleted", IsDeleted: true}))

	products, err := catalog.FindProducts(ctx, []string{"product-1", "product-1", "product-deleted", "missing"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "product-1", products[0].ID)

	partner, err := catalog.FindPartner(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, partner)
}
