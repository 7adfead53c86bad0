package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/app"
	"github.com/vladislavdragonenkov/orderdesk/internal/version"
)

const (
	envHTTPAddr            = "ORDERDESK_HTTP_ADDR"
	envMetricsAddr         = "ORDERDESK_METRICS_ADDR"
	envStorageDriver       = "ORDERDESK_STORAGE_DRIVER"
	envPostgresDSN         = "ORDERDESK_POSTGRES_DSN"
	envPostgresAutoMigrate = "ORDERDESK_POSTGRES_AUTO_MIGRATE"
	envSQLitePath          = "ORDERDESK_SQLITE_PATH"
	envSeedFile            = "ORDERDESK_SEED_FILE"
	envKafkaBrokers        = "ORDERDESK_KAFKA_BROKERS"
	envKafkaTopic          = "ORDERDESK_KAFKA_TOPIC"
	envKafkaDLQTopic       = "ORDERDESK_KAFKA_DLQ_TOPIC"
	envOutboxPollInterval  = "ORDERDESK_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize     = "ORDERDESK_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts   = "ORDERDESK_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay    = "ORDERDESK_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending    = "ORDERDESK_OUTBOX_MAX_PENDING"
	envAuthSecret          = "ORDERDESK_AUTH_SECRET"
	envDefaultLocale       = "ORDERDESK_DEFAULT_LOCALE"
	envLogLevel            = "ORDERDESK_LOG_LEVEL"
	envLogFormat           = "ORDERDESK_LOG_FORMAT"
	envLogFile             = "ORDERDESK_LOG_FILE"
)

type envLookup func(key string) (string, bool)

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию,
// а в warnings добавляется описание проблемы.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	str := func(key string, target *string, normalize func(string) string) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		if v = strings.TrimSpace(v); v == "" {
			return
		}
		if normalize != nil {
			v = normalize(v)
		}
		*target = v
	}
	warn := func(key, value string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s=%q ignored: %v", key, value, err))
	}
	positive := func(v int) bool { return v > 0 }
	nonNegative := func(v int) bool { return v >= 0 }

	str(envHTTPAddr, &cfg.HTTPAddr, nil)
	str(envMetricsAddr, &cfg.MetricsAddr, nil)
	str(envStorageDriver, &cfg.StorageDriver, strings.ToLower)
	str(envPostgresDSN, &cfg.PostgresDSN, nil)
	str(envSQLitePath, &cfg.SQLitePath, nil)
	str(envSeedFile, &cfg.SeedFile, nil)
	str(envKafkaBrokers, &cfg.KafkaBrokers, nil)
	str(envKafkaTopic, &cfg.KafkaTopic, nil)
	str(envKafkaDLQTopic, &cfg.KafkaDLQTopic, nil)
	str(envAuthSecret, &cfg.AuthSecret, nil)
	str(envDefaultLocale, &cfg.DefaultLocale, strings.ToLower)
	str(envLogLevel, &cfg.LogLevel, strings.ToLower)
	str(envLogFormat, &cfg.LogFormat, strings.ToLower)
	str(envLogFile, &cfg.LogFile, nil)

	if v, ok := lookup(envPostgresAutoMigrate); ok {
		if parsed, err := parseBool(v); err != nil {
			warn(envPostgresAutoMigrate, v, err)
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}

	durations := []struct {
		key    string
		target *time.Duration
		valid  func(time.Duration) bool
		msg    string
	}{
		{envOutboxPollInterval, &cfg.OutboxPollInterval, func(d time.Duration) bool { return d > 0 }, "must be > 0"},
		{envOutboxRetryDelay, &cfg.OutboxRetryDelay, func(d time.Duration) bool { return d >= 0 }, "must be >= 0"},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok {
			continue
		}
		parsed, err := parseDuration(v, d.valid, d.msg)
		if err != nil {
			warn(d.key, v, err)
			continue
		}
		*d.target = parsed
	}

	ints := []struct {
		key    string
		target *int
		valid  func(int) bool
		msg    string
	}{
		{envOutboxBatchSize, &cfg.OutboxBatchSize, positive, "must be > 0"},
		{envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positive, "must be > 0"},
		{envOutboxMaxPending, &cfg.OutboxMaxPending, nonNegative, "must be >= 0"},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok {
			continue
		}
		parsed, err := parseInt(v, i.valid, i.msg)
		if err != nil {
			warn(i.key, v, err)
			continue
		}
		*i.target = parsed
	}

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, validate func(int) bool, msg string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if validate != nil && !validate(value) {
		return 0, errors.New(msg)
	}
	return value, nil
}

func parseDuration(raw string, validate func(time.Duration) bool, msg string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if validate != nil && !validate(value) {
		return 0, errors.New(msg)
	}
	return value, nil
}

// loadDotEnv подхватывает .env из рабочей директории; уже заданные переменные не перезаписываются.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func main() {
	dotEnvErr := loadDotEnv()
	cfg, warnings := readConfigFromEnv(os.LookupEnv)

	closer, err := app.SetupLogging(cfg)
	if err != nil {
		log.WithError(err).Fatal("не удалось настроить логирование")
	}
	defer func() { _ = closer.Close() }()

	if dotEnvErr != nil {
		log.WithError(dotEnvErr).Warn("не удалось прочитать .env")
	}
	for _, w := range warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":      cfg.HTTPAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
		"version":        version.String(),
	}).Info("запускаем OrderDesk")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("приложение завершилось с ошибкой")
		_ = closer.Close()
		os.Exit(1)
	}

	log.Info("OrderDesk остановлен")
}
