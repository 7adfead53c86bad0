package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/memory"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	orders  domain.OrderRepository
	catalog *memory.CatalogRepository
	outbox  *memory.OutboxRepository
}

func loggerForTests() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.DebugLevel)
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	return log.NewEntry(logger)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()

	ctx := context.Background()
	catalog := memory.NewCatalogRepository()
	outbox := memory.NewOutboxRepository()
	orders := memory.NewOrderRepository(catalog, outbox)

	image := "https://cdn.example/kopi.png"
	box := "box"
	require.NoError(t, catalog.UpsertPartner(ctx, domain.Partner{ID: "partner-1", Name: "Toko Maju"}))
	require.NoError(t, catalog.UpsertPartner(ctx, domain.Partner{ID: "partner-gone", Name: "Toko Tutup", IsDeleted: true}))
	require.NoError(t, catalog.UpsertProduct(ctx, domain.Product{
		ID:        "product-1",
		Name:      "Kopi",
		BuyPrice:  decimal.NewNullDecimal(decimal.NewFromInt(10)),
		SellPrice: decimal.NewNullDecimal(decimal.NewFromInt(20)),
		Image:     &image,
		Unit:      &box,
	}))
	require.NoError(t, catalog.UpsertProduct(ctx, domain.Product{ID: "product-bare", Name: "Teh"}))
	require.NoError(t, catalog.UpsertProduct(ctx, domain.Product{
		ID:        "product-frac",
		Name:      "Gula",
		BuyPrice:  decimal.NewNullDecimal(decimal.RequireFromString("2.25")),
		SellPrice: decimal.NewNullDecimal(decimal.RequireFromString("3.10")),
	}))
	require.NoError(t, catalog.UpsertProduct(ctx, domain.Product{ID: "product-gone", Name: "Susu", IsDeleted: true}))
	require.NoError(t, catalog.UpsertProduct(ctx, domain.Product{
		ID:        "product-huge",
		Name:      "Emas",
		SellPrice: decimal.NewNullDecimal(decimal.RequireFromString("9999999999999999.99")),
	}))

	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
		WithLogger(loggerForTests()),
	}
	svc := NewService(orders, catalog, append(base, opts...)...)
	return fixture{svc: svc, orders: orders, catalog: catalog, outbox: outbox}
}

func input(items string) CreateOrderInput {
	return CreateOrderInput{
		Date:       "2025-03-11T10:00:00Z",
		PartnerID:  "partner-1",
		OrderItems: json.RawMessage(items),
	}
}

func requireNoOrders(t *testing.T, f fixture) {
	t.Helper()
	orders, err := f.orders.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
	require.Empty(t, f.outbox.AllPending())
}

func TestCreate_SingleItemExample(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), input(`[{"productId":"product-1","quantity":2}]`))
	require.NoError(t, err)

	require.Equal(t, domain.OrderStatusUpcoming, order.Status)
	require.True(t, order.TotalBuyPrice.Equal(decimal.NewFromInt(20)))
	require.True(t, order.TotalSellPrice.Equal(decimal.NewFromInt(40)))
	require.Len(t, order.Items, 1)

	item := order.Items[0]
	require.Equal(t, 2, item.Quantity)
	require.True(t, item.TotalBuyPrice.Equal(decimal.NewFromInt(20)))
	require.True(t, item.TotalSellPrice.Equal(decimal.NewFromInt(40)))
	require.Equal(t, "box", item.Unit)
	require.NotNil(t, item.Image)
	require.Equal(t, order.ID, item.OrderID)
	require.NotNil(t, item.Product)
	require.Equal(t, "Kopi", item.Product.Name)
	require.Equal(t, fixedNow, order.CreatedAt)

	stored, err := f.orders.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	require.True(t, stored.TotalSellPrice.Equal(decimal.NewFromInt(40)))
}

func TestCreate_TotalsAreRunningSums(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), input(`[
		{"productId":"product-1","quantity":3},
		{"productId":"product-frac","quantity":4},
		{"productId":"product-1","quantity":1}
	]`))
	require.NoError(t, err)
	require.Len(t, order.Items, 3)

	// 10*3 + 2.25*4 + 10*1 = 49; 20*3 + 3.10*4 + 20*1 = 92.4
	require.True(t, order.TotalBuyPrice.Equal(decimal.RequireFromString("49")), order.TotalBuyPrice.String())
	require.True(t, order.TotalSellPrice.Equal(decimal.RequireFromString("92.4")), order.TotalSellPrice.String())

	buy, sell := order.ItemsTotals()
	require.True(t, buy.Equal(order.TotalBuyPrice))
	require.True(t, sell.Equal(order.TotalSellPrice))

	require.Equal(t, "product-1", order.Items[0].ProductID)
	require.Equal(t, "product-frac", order.Items[1].ProductID)
	require.Equal(t, "product-1", order.Items[2].ProductID)
}

func TestCreate_DefaultsForBareProduct(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), input(`[{"productId":"product-bare","quantity":5}]`))
	require.NoError(t, err)

	item := order.Items[0]
	require.True(t, item.TotalBuyPrice.IsZero())
	require.True(t, item.TotalSellPrice.IsZero())
	require.Equal(t, domain.DefaultUnit, item.Unit)
	require.Nil(t, item.Image)
	require.True(t, order.TotalBuyPrice.IsZero())
}

func TestCreate_UnknownItemKeysAreDropped(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), input(`[{"productId":"product-1","quantity":"2","price":1,"discount":{"x":1}}]`))
	require.NoError(t, err)
	require.Equal(t, 2, order.Items[0].Quantity)
	require.True(t, order.TotalSellPrice.Equal(decimal.NewFromInt(40)))
}

func TestCreate_ItemKeysAreCaseSensitive(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), input(`[{"productId":"product-1","quantity":2,"PRODUCTID":"product-gone","Quantity":9}]`))
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	require.Equal(t, "product-1", order.Items[0].ProductID)
	require.Equal(t, 2, order.Items[0].Quantity)
}

func TestCreate_MaxQuantityIsAccepted(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), input(`[{"productId":"product-bare","quantity":2147483647}]`))
	require.NoError(t, err)
	require.Equal(t, 2147483647, order.Items[0].Quantity)
}

func TestCreate_NoteIsKept(t *testing.T) {
	f := newFixture(t)
	in := input(`[{"productId":"product-1","quantity":1}]`)
	note := "antar sebelum jam 9"
	in.Note = &note

	order, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, order.Note)
	require.Equal(t, note, *order.Note)
}

func TestCreate_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		in   CreateOrderInput
		want error
	}{
		{
			name: "missing date",
			in:   CreateOrderInput{PartnerID: "partner-1", OrderItems: json.RawMessage(`[]`)},
			want: domain.ErrFieldsRequired,
		},
		{
			name: "missing partner",
			in:   CreateOrderInput{Date: "2025-03-11", OrderItems: json.RawMessage(`[]`)},
			want: domain.ErrFieldsRequired,
		},
		{
			name: "missing items",
			in:   CreateOrderInput{Date: "2025-03-11", PartnerID: "partner-1"},
			want: domain.ErrFieldsRequired,
		},
		{
			name: "null items",
			in:   CreateOrderInput{Date: "2025-03-11", PartnerID: "partner-1", OrderItems: json.RawMessage(`null`)},
			want: domain.ErrFieldsRequired,
		},
		{
			name: "unparseable date",
			in:   input(`[{"productId":"product-1","quantity":1}]`),
			want: domain.ErrInvalidDate,
		},
		{
			name: "date in the past",
			in:   input(`[{"productId":"product-1","quantity":1}]`),
			want: domain.ErrDateInPast,
		},
		{
			name: "items is an object",
			in:   input(`{"productId":"product-1","quantity":1}`),
			want: domain.ErrInvalidItemsFormat,
		},
		{
			name: "items is a string",
			in:   input(`"product-1"`),
			want: domain.ErrInvalidItemsFormat,
		},
		{
			name: "empty items",
			in:   input(`[]`),
			want: domain.ErrEmptyItems,
		},
		{
			name: "item without quantity",
			in:   input(`[{"productId":"product-1"}]`),
			want: domain.ErrInvalidItemsFormat,
		},
		{
			name: "item with zero quantity",
			in:   input(`[{"productId":"product-1","quantity":0}]`),
			want: domain.ErrInvalidItemsFormat,
		},
		{
			name: "item with negative quantity",
			in:   input(`[{"productId":"product-1","quantity":-3}]`),
			want: domain.ErrInvalidItemsFormat,
		},
		{
			name: "item with fractional quantity",
			in:   input(`[{"productId":"product-1","quantity":1.5}]`),
			want: domain.ErrInvalidItemsFormat,
		},
		{
			name: "item is not an object",
			in:   input(`[42]`),
			want: domain.ErrInvalidItemsFormat,
		},
		{
			name: "bad second item aborts the request",
			in:   input(`[{"productId":"product-1","quantity":1},{"productId":"","quantity":1}]`),
			want: domain.ErrInvalidItemsFormat,
		},
		{
			name: "partner does not exist",
			in:   CreateOrderInput{Date: "2025-03-11T10:00:00Z", PartnerID: "nobody", OrderItems: json.RawMessage(`[{"productId":"product-1","quantity":1}]`)},
			want: domain.ErrPartnerNotFound,
		},
		{
			name: "partner is soft-deleted",
			in:   CreateOrderInput{Date: "2025-03-11T10:00:00Z", PartnerID: "partner-gone", OrderItems: json.RawMessage(`[{"productId":"product-1","quantity":1}]`)},
			want: domain.ErrPartnerNotFound,
		},
		{
			name: "product does not exist",
			in:   input(`[{"productId":"product-1","quantity":1},{"productId":"ghost","quantity":1}]`),
			want: domain.ErrProductNotFound,
		},
		{
			name: "product is soft-deleted",
			in:   input(`[{"productId":"product-gone","quantity":1}]`),
			want: domain.ErrProductNotFound,
		},
		{
			name: "item keys differ by case",
			in:   input(`[{"ProductID":"product-1","QUANTITY":2}]`),
			want: domain.ErrInvalidItemsFormat,
		},
		{
			name: "quantity above integer column range",
			in:   input(`[{"productId":"product-1","quantity":2147483648}]`),
			want: domain.ErrInvalidItemsFormat,
		},
		{
			name: "order total above amount column range",
			in:   input(`[{"productId":"product-1","quantity":2147483647},{"productId":"product-huge","quantity":1}]`),
			want: domain.ErrInvalidItemsFormat,
		},
	}

	cases[4].in.Date = "not-a-date"
	cases[5].in.Date = "2025-03-09T23:59:59Z"

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.Create(context.Background(), tc.in)
			require.ErrorIs(t, err, tc.want)
			require.True(t, domain.IsInvalidInput(err))
			requireNoOrders(t, f)
		})
	}
}

func TestCreate_PartnerCheckedBeforeProducts(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateOrderInput{
		Date:       "2025-03-11",
		PartnerID:  "nobody",
		OrderItems: json.RawMessage(`[{"productId":"ghost","quantity":1}]`),
	})
	require.ErrorIs(t, err, domain.ErrPartnerNotFound)
}

func TestCreate_DateFormats(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-11":                time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		"2025-03-10T09:00:00Z":      fixedNow,
		"2025-03-10 12:30:00":       time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC),
		"2025-03-10T10:00:00+01:00": fixedNow,
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			f := newFixture(t)
			in := input(`[{"productId":"product-1","quantity":1}]`)
			in.Date = raw

			order, err := f.svc.Create(context.Background(), in)
			require.NoError(t, err)
			require.True(t, order.Date.Equal(want), "got %s", order.Date)
		})
	}
}

func TestCreate_EnqueuesOrderCreatedEvent(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(context.Background(), input(`[{"productId":"product-1","quantity":2}]`))
	require.NoError(t, err)

	pending := f.outbox.AllPending()
	require.Len(t, pending, 1)
	require.Equal(t, domain.EventTypeOrderCreated, pending[0].EventType)
	require.Equal(t, order.ID, pending[0].AggregateID)

	var event map[string]any
	require.NoError(t, json.Unmarshal(pending[0].Payload, &event))
	require.Equal(t, order.ID, event["order_id"])
	require.Equal(t, "Upcoming", event["status"])
	require.EqualValues(t, 1, event["item_count"])
}

type failingOrderRepository struct {
	domain.OrderRepository
	err error
}

func (r failingOrderRepository) Create(context.Context, domain.Order, ...domain.OutboxMessage) error {
	return r.err
}

func (r failingOrderRepository) List(context.Context) ([]domain.Order, error) {
	return nil, r.err
}

func (r failingOrderRepository) Get(context.Context, string) (domain.Order, error) {
	return domain.Order{}, r.err
}

type failingCatalog struct {
	domain.CatalogRepository
	err error
}

func (c failingCatalog) FindProducts(context.Context, []string) ([]domain.Product, error) {
	return nil, c.err
}

func TestCreate_PersistenceFailureIsSystemError(t *testing.T) {
	f := newFixture(t)
	dbErr := errors.New("connection reset")
	svc := NewService(failingOrderRepository{err: dbErr}, f.catalog, WithClock(func() time.Time { return fixedNow }))

	_, err := svc.Create(context.Background(), input(`[{"productId":"product-1","quantity":1}]`))
	require.ErrorIs(t, err, dbErr)
	require.False(t, domain.IsInvalidInput(err))
}

func TestCreate_LookupFailureIsSystemError(t *testing.T) {
	f := newFixture(t)
	lookupErr := errors.New("catalog offline")
	svc := NewService(f.orders, failingCatalog{CatalogRepository: f.catalog, err: lookupErr},
		WithClock(func() time.Time { return fixedNow }))

	_, err := svc.Create(context.Background(), input(`[{"productId":"product-1","quantity":1}]`))
	require.ErrorIs(t, err, lookupErr)
	require.False(t, domain.IsInvalidInput(err))
	requireNoOrders(t, f)
}

func TestCreate_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewOrderMetricsWithRegisterer(reg)
	f := newFixture(t, WithMetrics(m))

	_, err := f.svc.Create(context.Background(), input(`[{"productId":"product-1","quantity":1}]`))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), input(`[]`))
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() != nil {
				values[family.GetName()] += metric.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, float64(1), values["orderdesk_orders_created_total"])
	require.Equal(t, float64(1), values["orderdesk_order_rejections_total"])
}

func TestList_AttachesStatusAndHidesDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	started := fixedNow.Add(-time.Hour)
	finished := fixedNow.Add(-time.Minute)

	seed := []domain.Order{
		{ID: "upcoming", PartnerID: "partner-1", CreatedAt: fixedNow.Add(-3 * time.Hour)},
		{ID: "in-progress", PartnerID: "partner-1", CreatedAt: fixedNow.Add(-2 * time.Hour), StartedAt: &started},
		{ID: "done", PartnerID: "partner-1", CreatedAt: fixedNow.Add(-1 * time.Hour), StartedAt: &started, FinishedAt: &finished},
		{ID: "deleted", PartnerID: "partner-1", CreatedAt: fixedNow, IsDeleted: true},
	}
	for _, order := range seed {
		require.NoError(t, f.orders.Create(ctx, order))
	}

	orders, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	require.Equal(t, "done", orders[0].ID)
	require.Equal(t, domain.OrderStatusDone, orders[0].Status)
	require.Equal(t, domain.OrderStatusInProgress, orders[1].Status)
	require.Equal(t, domain.OrderStatusUpcoming, orders[2].Status)
}

func TestGet_AttachesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	started := fixedNow

	require.NoError(t, f.orders.Create(ctx, domain.Order{ID: "order-1", PartnerID: "partner-1", StartedAt: &started}))

	order, err := f.svc.Get(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusInProgress, order.Status)
}

func TestGet_SoftDeletedIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orders.Create(ctx, domain.Order{ID: "order-1", PartnerID: "partner-1", IsDeleted: true}))

	_, err := f.svc.Get(ctx, "order-1")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.svc.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestReadFailuresAreSystemErrors(t *testing.T) {
	dbErr := errors.New("db down")
	svc := NewService(failingOrderRepository{err: dbErr}, memory.NewCatalogRepository())

	_, err := svc.List(context.Background())
	require.ErrorIs(t, err, dbErr)

	_, err = svc.Get(context.Background(), "order-1")
	require.ErrorIs(t, err, dbErr)
	require.NotErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestCreatedOrderIsReadableWithDerivedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, input(`[{"productId":"product-1","quantity":2}]`))
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusUpcoming, got.Status)
	require.NotNil(t, got.Partner)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)
}
