package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/orderdesk/internal/health"
	"github.com/vladislavdragonenkov/orderdesk/internal/seed"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/memory"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/orm"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/postgres"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/sqlite"
)

// runtimeDependencies: хранилища выбранного драйвера и функция их закрытия.
type runtimeDependencies struct {
	repo           domain.OrderRepository
	catalog        domain.CatalogRepository
	catalogWriter  domain.CatalogWriter
	outboxRepo     domain.OutboxRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d *runtimeDependencies) close() error {
	if d == nil || d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	var (
		deps *runtimeDependencies
		err  error
	)
	switch strings.TrimSpace(cfg.StorageDriver) {
	case StorageDriverMemory:
		deps = initMemoryDependencies()
	case StorageDriverPostgres:
		deps, err = initPostgresDependencies(ctx, cfg, logger)
	case StorageDriverSQLite:
		deps, err = initSQLiteDependencies(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}
	logger.WithField("storage_driver", cfg.StorageDriver).Info("хранилище инициализировано")

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, cfg.SeedFile, deps.catalogWriter, logger); err != nil {
			return nil, errors.Join(err, deps.close())
		}
	}
	return deps, nil
}

func initMemoryDependencies() *runtimeDependencies {
	catalog := memory.NewCatalogRepository()
	outboxRepo := memory.NewOutboxRepository()
	return &runtimeDependencies{
		repo:          memory.NewOrderRepository(catalog, outboxRepo),
		catalog:       catalog,
		catalogWriter: catalog,
		outboxRepo:    outboxRepo,
		storageChecker: healthcheck.NewFuncChecker("storage", func(context.Context) error {
			return nil
		}),
	}
}

func initPostgresDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("postgres dsn is required for postgres storage driver")
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, errors.Join(fmt.Errorf("apply migrations: %w", err), store.Close())
		}
	}

	db, err := store.Gorm(logger.WithField("component", "gorm"))
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}

	deps := gormDependencies(db)
	deps.storageChecker = healthcheck.NewFuncChecker("postgres", store.Ping)
	deps.closeFn = store.Close
	return deps, nil
}

func initSQLiteDependencies(cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	db, err := sqlite.Open(cfg.SQLitePath, logger.WithField("component", "sqlite"))
	if err != nil {
		return nil, err
	}

	deps := gormDependencies(db)
	deps.storageChecker = healthcheck.NewFuncChecker("sqlite", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	deps.closeFn = func() error { return sqlite.Close(db) }
	return deps, nil
}

func gormDependencies(db *gorm.DB) *runtimeDependencies {
	catalog := orm.NewCatalogRepository(db)
	return &runtimeDependencies{
		repo:          orm.NewOrderRepository(db),
		catalog:       catalog,
		catalogWriter: catalog,
		outboxRepo:    orm.NewOutboxRepository(db),
	}
}

func applySeed(ctx context.Context, path string, writer domain.CatalogWriter, logger *log.Entry) error {
	catalog, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	if err := seed.Apply(ctx, writer, catalog, logger.WithField("component", "seed")); err != nil {
		return fmt.Errorf("apply seed file %s: %w", path, err)
	}
	return nil
}
