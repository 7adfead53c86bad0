package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
)

// Service реализует чтение заказов и конвейер создания заказа.
type Service struct {
	orders  domain.OrderRepository
	catalog domain.CatalogRepository
	metrics *metrics.OrderMetrics
	logger  *log.Entry
	now     func() time.Time
	newID   func() string
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics подключает метрики конвейера.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator подменяет генератор идентификаторов заказа и позиций.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService создаёт сервис заказов.
func NewService(orders domain.OrderRepository, catalog domain.CatalogRepository, opts ...Option) *Service {
	s := &Service{
		orders:  orders,
		catalog: catalog,
		logger:  log.WithField("component", "order-service"),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List возвращает неудалённые заказы, новые первыми, со статусом.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	for i := range orders {
		orders[i].AttachStatus()
	}
	return orders, nil
}

// Get возвращает заказ со статусом или domain.ErrOrderNotFound.
func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	order.AttachStatus()
	return order, nil
}

// Create проверяет запрос, считает цены и атомарно сохраняет заказ с позициями.
// Ошибки валидации имеют тип *domain.InputError, остальные ошибки системные.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	started := time.Now()

	order, err := s.create(ctx, in)

	switch code, invalid := domain.InputErrorCode(err); {
	case err == nil:
		s.metrics.RecordOrderCreated()
		s.metrics.RecordCreateDuration("created", time.Since(started))
		s.logger.WithFields(log.Fields{
			"order_id":   order.ID,
			"partner_id": order.PartnerID,
			"items":      len(order.Items),
		}).Info("order created")
	case invalid:
		s.metrics.RecordRejection(code)
		s.metrics.RecordCreateDuration("rejected", time.Since(started))
		s.logger.WithField("reason", code).Debug("order rejected")
	default:
		s.metrics.RecordCreateDuration("error", time.Since(started))
	}

	return order, err
}

func (s *Service) create(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	now := s.now()

	req, err := validateShape(in, now)
	if err != nil {
		return domain.Order{}, err
	}

	var (
		found   []domain.Product
		partner *domain.Partner
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.catalog.FindProducts(gctx, req.productIDs)
		if err != nil {
			return fmt.Errorf("find products: %w", err)
		}
		found = products
		return nil
	})
	g.Go(func() error {
		p, err := s.catalog.FindPartner(gctx, req.partnerID)
		if err != nil {
			return fmt.Errorf("find partner: %w", err)
		}
		partner = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Order{}, err
	}

	if partner == nil || partner.IsDeleted {
		return domain.Order{}, domain.ErrPartnerNotFound
	}

	products := make(map[string]domain.Product, len(found))
	for _, product := range found {
		products[product.ID] = product
	}
	if len(products) != len(req.productIDs) {
		return domain.Order{}, domain.ErrProductNotFound
	}

	lines, totalBuy, totalSell, err := priceItems(req.items, products)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:             s.newID(),
		Date:           req.date,
		PartnerID:      req.partnerID,
		Note:           req.note,
		TotalBuyPrice:  totalBuy,
		TotalSellPrice: totalSell,
		CreatedAt:      now,
		Items:          lines,
	}
	for i := range order.Items {
		order.Items[i].ID = s.newID()
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = now
	}

	event, err := newOrderCreatedMessage(order)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.orders.Create(ctx, order, event); err != nil {
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	// Позиции отдаются с товарами, загруженными при проверке, без повторного чтения.
	for i := range order.Items {
		product := products[order.Items[i].ProductID]
		order.Items[i].Product = &product
	}
	order.Status = domain.OrderStatusUpcoming

	return order, nil
}

func newOrderCreatedMessage(order domain.Order) (domain.OutboxMessage, error) {
	payload, err := json.Marshal(domain.NewOrderCreatedEvent(order))
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal order created event: %w", err)
	}
	return domain.OutboxMessage{
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   order.ID,
		EventType:     domain.EventTypeOrderCreated,
		Payload:       payload,
	}, nil
}
