package orm

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// NewConfig собирает gorm.Config, в котором SQL-логи gorm идут через logrus.
func NewConfig(logger *log.Entry) *gorm.Config {
	if logger == nil {
		logger = log.WithField("component", "gorm")
	}

	level := gormlogger.Warn
	if logger.Logger.IsLevelEnabled(log.DebugLevel) {
		level = gormlogger.Info
	}

	return &gorm.Config{
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// AutoMigrate создаёт или дополняет таблицы по моделям. Для PostgreSQL
// схема ведётся SQL-миграциями, AutoMigrate используется для SQLite.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&partnerModel{},
		&productModel{},
		&orderModel{},
		&orderItemModel{},
		&outboxModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
