package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	MaxLogSizeMB = 10
	MaxBackups   = 3
	LogFileName  = "dut-harness.log"
)

var (
	mu          sync.Mutex
	sugar       = newConsole(zapcore.InfoLevel)
	logFile     *lumberjack.Logger
	initialized bool
)

// Init initializes the logger with a log directory. Output goes to
// dir/dut-harness.log (rotated) and to stderr.
func Init(dir string, level string) error {
	mu.Lock()
	if initialized {
		mu.Unlock()
		return nil
	}
	err := initLocked(dir, level)
	mu.Unlock()
	if err != nil {
		return err
	}

	Info("Logger initialized (level=%s)", level)
	return nil
}

func initLocked(dir string, level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	// Create log directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile = &lumberjack.Logger{
		Filename:   filepath.Join(dir, LogFileName),
		MaxSize:    MaxLogSizeMB,
		MaxBackups: MaxBackups,
	}

	enc := zapcore.NewConsoleEncoder(encoderConfig())
	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.AddSync(logFile), lvl),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl),
	)
	sugar = zap.New(core).Sugar()
	initialized = true
	return nil
}

// Close flushes and closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()

	_ = sugar.Sync()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	sugar = newConsole(zapcore.InfoLevel)
	initialized = false
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return sugar
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Warn logs a warning
func Warn(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Protocol logs a line-level exchange with the board
func Protocol(direction, event string, data []byte) {
	if len(data) > 100 {
		current().Debugf("[PROTO] %s %s len=%d first_100=%q...", direction, event, len(data), data[:100])
		return
	}
	current().Debugf("[PROTO] %s %s data=%q", direction, event, data)
}

func parseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func newConsole(lvl zapcore.Level) *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stderr), lvl)
	return zap.New(core).Sugar()
}
