package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging настраивает глобальный logrus-логгер. Возвращённый Closer
// закрывает файл лога, если он задан.
func SetupLogging(cfg Config) (io.Closer, error) {
	return configureLogger(log.StandardLogger(), cfg, os.Stdout)
}

func configureLogger(logger *log.Logger, cfg Config, stdout io.Writer) (io.Closer, error) {
	level, err := log.ParseLevel(strings.TrimSpace(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)

	switch cfg.LogFormat {
	case LogFormatJSON:
		logger.SetFormatter(&log.JSONFormatter{})
	case LogFormatText, "":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	if cfg.LogFile == "" {
		logger.SetOutput(stdout)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	fileLogger := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     28, // дней
		Compress:   true,
	}
	logger.SetOutput(io.MultiWriter(stdout, fileLogger))
	return fileLogger, nil
}
