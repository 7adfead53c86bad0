package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// CatalogRepository: in-memory справочник партнёров и товаров.
type CatalogRepository struct {
	mu       sync.RWMutex
	partners map[string]domain.Partner
	products map[string]domain.Product
}

// NewCatalogRepository возвращает пустой in-memory справочник.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		partners: make(map[string]domain.Partner),
		products: make(map[string]domain.Product),
	}
}

// FindProducts возвращает неудалённые товары из набора ids. Повторяющиеся ID
// дают одну запись.
func (r *CatalogRepository) FindProducts(_ context.Context, ids []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		product, ok := r.products[id]
		if !ok || product.IsDeleted {
			continue
		}
		result = append(result, product)
	}
	return result, nil
}

// FindPartner возвращает партнёра или nil, если его нет.
func (r *CatalogRepository) FindPartner(_ context.Context, id string) (*domain.Partner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	partner, ok := r.partners[id]
	if !ok {
		return nil, nil
	}
	return &partner, nil
}

// UpsertPartner добавляет или заменяет партнёра.
func (r *CatalogRepository) UpsertPartner(_ context.Context, partner domain.Partner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partners[partner.ID] = partner
	return nil
}

// UpsertProduct добавляет или заменяет товар.
func (r *CatalogRepository) UpsertProduct(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
	return nil
}

func (r *CatalogRepository) product(id string) (domain.Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	return product, ok
}

var (
	_ domain.CatalogRepository = (*CatalogRepository)(nil)
	_ domain.CatalogWriter     = (*CatalogRepository)(nil)
)
