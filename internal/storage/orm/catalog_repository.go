package orm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// CatalogRepository: справочник партнёров и товаров поверх gorm.
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository создаёт справочник партнёров и товаров поверх gorm.
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) FindProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var models []productModel
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}

	products := make([]domain.Product, 0, len(models))
	for _, m := range models {
		products = append(products, productFromModel(m))
	}
	return products, nil
}

func (r *CatalogRepository) FindPartner(ctx context.Context, id string) (*domain.Partner, error) {
	var m partnerModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find partner %s: %w", id, err)
	}

	partner := partnerFromModel(m)
	return &partner, nil
}

func (r *CatalogRepository) UpsertPartner(ctx context.Context, partner domain.Partner) error {
	m := partnerToModel(partner)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
		return fmt.Errorf("upsert partner %s: %w", partner.ID, err)
	}
	return nil
}

func (r *CatalogRepository) UpsertProduct(ctx context.Context, product domain.Product) error {
	m := productToModel(product)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
		return fmt.Errorf("upsert product %s: %w", product.ID, err)
	}
	return nil
}

var (
	_ domain.CatalogRepository = (*CatalogRepository)(nil)
	_ domain.CatalogWriter     = (*CatalogRepository)(nil)
)
