package domain

import (
	"context"
	"time"
)

// OrderRepository описывает хранилище заказов. Чтение всегда исключает
// удалённые заказы и позиции.
type OrderRepository interface {
	// List возвращает неудалённые заказы (новые первыми) с позициями и партнёром.
	List(ctx context.Context) ([]Order, error)
	// Get возвращает заказ с позициями (вместе с товарами) и партнёром
	// или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// Create атомарно сохраняет заказ, все его позиции и переданные outbox-события.
	Create(ctx context.Context, order Order, events ...OutboxMessage) error
}

// CatalogRepository даёт доступ на чтение к партнёрам и товарам.
type CatalogRepository interface {
	// FindProducts возвращает неудалённые товары с ID из ids.
	FindProducts(ctx context.Context, ids []string) ([]Product, error)
	// FindPartner возвращает партнёра по ID (в том числе удалённого) или nil.
	FindPartner(ctx context.Context, id string) (*Partner, error)
}

// CatalogWriter используется для загрузки справочников (seed).
type CatalogWriter interface {
	UpsertPartner(ctx context.Context, partner Partner) error
	UpsertProduct(ctx context.Context, product Product) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository хранит события до публикации.
type OutboxRepository interface {
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
