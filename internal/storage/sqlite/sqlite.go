package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/vladislavdragonenkov/orderdesk/internal/storage/orm"
)

// Open открывает SQLite-базу (pure Go драйвер) и приводит схему к моделям.
// path может быть путём к файлу, ":memory:" или DSN вида "file:...".
func Open(path string, logger *log.Entry) (*gorm.DB, error) {
	if logger == nil {
		logger = log.WithField("component", "sqlite")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	if isFilePath(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), orm.NewConfig(logger.WithField("component", "gorm")))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite connection pool: %w", err)
	}
	// SQLite не любит конкурентных писателей, а ":memory:" живёт в рамках одного соединения.
	sqlDB.SetMaxOpenConns(1)

	if err := orm.AutoMigrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.WithField("path", path).Info("sqlite storage ready")
	return db, nil
}

// Close закрывает пул соединений gorm.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isFilePath(path string) bool {
	return path != ":memory:" && !strings.HasPrefix(path, "file:")
}
