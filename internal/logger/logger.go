// Package logger cung cấp hệ thống logging tập trung cho service:
// logrus với file rotation (lumberjack) và async hook để không block request handling.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig chứa cấu hình logging, đọc từ environment variables.
type LogConfig struct {
	Level      string // debug | info | warn | error
	Format     string // json | text
	Output     string // stdout | file | both
	Path       string // Thư mục chứa file log
	MaxSize    int    // MB mỗi file
	MaxBackups int    // Số file cũ giữ lại
	MaxAge     int    // Số ngày giữ file
	Compress   bool   // Nén file cũ
}

// DefaultConfig trả về cấu hình mặc định, override bằng env LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT, LOG_PATH.
func DefaultConfig() *LogConfig {
	cfg := &LogConfig{
		Level:      "info",
		Format:     "text",
		Output:     "stdout",
		Path:       "logs",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		cfg.Path = v
	}
	if v := os.Getenv("LOG_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSize = n
		}
	}
	return cfg
}

var (
	// loggers map lưu các logger instances theo tên (app, worker, error)
	loggers   = make(map[string]*logrus.Logger)
	loggersMu sync.Mutex

	// config chứa cấu hình logging hiện hành
	config *LogConfig
)

// Init khởi tạo hệ thống logging với cấu hình. cfg = nil dùng DefaultConfig.
func Init(cfg *LogConfig) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	config = cfg

	if config.Output == "file" || config.Output == "both" {
		if err := os.MkdirAll(config.Path, 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
	}
	return nil
}

// GetLogger trả về logger theo tên (app, worker, error). Tự init với config mặc định nếu chưa Init.
func GetLogger(name string) *logrus.Logger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if config == nil {
		if err := Init(nil); err != nil {
			panic(fmt.Sprintf("Failed to initialize logger: %v", err))
		}
	}

	if logger, ok := loggers[name]; ok {
		return logger
	}

	logger := createLogger(name)
	loggers[name] = logger
	return logger
}

// GetAppLogger trả về logger chính của ứng dụng.
func GetAppLogger() *logrus.Logger {
	return GetLogger("app")
}

// GetWorkerLogger trả về logger cho các background worker.
func GetWorkerLogger() *logrus.Logger {
	return GetLogger("worker")
}

// createLogger tạo một logger mới với cấu hình hiện hành
func createLogger(name string) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	// Tách file writer và stdout writer, ghi qua async hook để file I/O chậm
	// không block goroutine đang log
	var writers []io.Writer

	if config.Output == "file" || config.Output == "both" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(config.Path, name+".log"),
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
	}
	if config.Output == "stdout" || config.Output == "both" {
		writers = append(writers, os.Stdout)
	}

	if len(writers) > 0 {
		asyncHook := NewAsyncHookWithWriters(writers, 1000)
		logger.AddHook(asyncHook)
		logger.SetOutput(io.Discard) // Hook xử lý toàn bộ output, tránh duplicate
	}

	return logger
}
