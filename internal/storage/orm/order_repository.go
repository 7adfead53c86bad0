package orm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

const itemsBatchSize = 100

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создаёт OrderRepository поверх gorm.
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	var models []orderModel
	err := r.db.WithContext(ctx).
		Preload("Items", "is_deleted = ?", false).
		Preload("Partner").
		Where("is_deleted = ?", false).
		Order("created_at DESC").
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(models))
	for _, m := range models {
		orders = append(orders, orderFromModel(m))
	}
	return orders, nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	var m orderModel
	err := r.db.WithContext(ctx).
		Preload("Items", "is_deleted = ?", false).
		Preload("Items.Product").
		Preload("Partner").
		Where("id = ?", id).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	if m.IsDeleted {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	return orderFromModel(m), nil
}

// Create пишет заказ, позиции и outbox-события в одной транзакции.
func (r *orderRepository) Create(ctx context.Context, order domain.Order, events ...domain.OutboxMessage) error {
	m := orderToModel(order)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := orderExistsTx(tx, order.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrOrderAlreadyExists
		}

		items := m.Items
		m.Items = nil
		if err := tx.Omit(clause.Associations).Create(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrOrderAlreadyExists
			}
			return fmt.Errorf("insert order: %w", err)
		}
		if len(items) > 0 {
			if err := tx.Omit(clause.Associations).CreateInBatches(&items, itemsBatchSize).Error; err != nil {
				return fmt.Errorf("insert order items: %w", err)
			}
		}

		if len(events) == 0 {
			return nil
		}
		now := time.Now().UTC()
		rows := make([]outboxModel, 0, len(events))
		for _, event := range events {
			if event.ID == "" {
				event.ID = uuid.NewString()
			}
			rows = append(rows, outboxModel{
				ID:            event.ID,
				AggregateType: event.AggregateType,
				AggregateID:   event.AggregateID,
				EventType:     event.EventType,
				Payload:       event.Payload,
				Status:        outboxStatusPending,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("enqueue outbox messages: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderAlreadyExists) {
			return err
		}
		return fmt.Errorf("create order %s: %w", order.ID, err)
	}
	return nil
}

func orderExistsTx(tx *gorm.DB, id string) (bool, error) {
	var count int64
	if err := tx.Model(&orderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check order exists: %w", err)
	}
	return count > 0, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
