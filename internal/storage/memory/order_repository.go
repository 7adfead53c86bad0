package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// orderRepositoryInMemory: in-memory реализация OrderRepository. Партнёры и
// товары для раскрытия берутся из catalog, события пишутся в outbox.
type orderRepositoryInMemory struct {
	mu      sync.RWMutex
	items   map[string]domain.Order
	catalog *CatalogRepository
	outbox  *OutboxRepository
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
// catalog и outbox могут быть nil.
func NewOrderRepository(catalog *CatalogRepository, outbox *OutboxRepository) domain.OrderRepository {
	if catalog == nil {
		catalog = NewCatalogRepository()
	}
	return &orderRepositoryInMemory{
		items:   make(map[string]domain.Order),
		catalog: catalog,
		outbox:  outbox,
	}
}

// Create сохраняет заказ вместе с позициями и событиями, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order, events ...domain.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderAlreadyExists
	}

	// Сохраняем копию, чтобы вызывающий код не мог мутировать хранимые позиции.
	stored := order
	stored.Items = make([]domain.OrderItem, len(order.Items))
	for i, item := range order.Items {
		item.OrderID = order.ID
		item.Product = nil
		stored.Items[i] = item
	}
	stored.Partner = nil
	stored.Status = ""
	r.items[order.ID] = stored

	if r.outbox != nil {
		for _, event := range events {
			r.outbox.enqueue(event)
		}
	}
	return nil
}

// Get возвращает неудалённый заказ с раскрытыми товарами или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	order, ok := r.items[id]
	r.mu.RUnlock()

	if !ok || order.IsDeleted {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return r.expand(order, true), nil
}

// List возвращает неудалённые заказы, новые первыми.
func (r *orderRepositoryInMemory) List(_ context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if order.IsDeleted {
			continue
		}
		result = append(result, order)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	for i := range result {
		result[i] = r.expand(result[i], false)
	}
	return result, nil
}

func (r *orderRepositoryInMemory) expand(order domain.Order, withProducts bool) domain.Order {
	items := make([]domain.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		if item.IsDeleted {
			continue
		}
		if withProducts {
			if product, ok := r.catalog.product(item.ProductID); ok {
				item.Product = &product
			}
		}
		items = append(items, item)
	}
	order.Items = items

	if partner, _ := r.catalog.FindPartner(context.Background(), order.PartnerID); partner != nil {
		order.Partner = partner
	}
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
