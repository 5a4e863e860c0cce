// Package logging provides config-driven categorized file-based logging for Anubis.
// Logs are written to .anubis/logs/ with separate files per category.
// Logging is controlled by debug_mode in the project configuration - when false,
// no logs are written.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // CLI startup, configuration
	CategoryWriter    Category = "writer"    // Policy dispatch and final writes
	CategoryBaseline  Category = "baseline"  // Baseline store reads/writes
	CategoryReconcile Category = "reconcile" // Synthetic merge decisions
	CategoryJournal   Category = "journal"   // Write history database
	CategoryManifest  Category = "manifest"  // Manifest loading and source resolution
	CategoryWatch     Category = "watch"     // Filesystem watcher
)

// Categories lists every known category.
var Categories = []Category{
	CategoryBoot, CategoryWriter, CategoryBaseline, CategoryReconcile,
	CategoryJournal, CategoryManifest, CategoryWatch,
}

// Config mirrors config.LoggingConfig to avoid an import cycle.
type Config struct {
	DebugMode  bool
	Level      string
	JSONFormat bool
	Categories map[string]bool
}

// StructuredLogEntry is one JSON log line.
type StructuredLogEntry struct {
	Timestamp int64                  `json:"ts"`
	Category  string                 `json:"cat"`
	Level     string                 `json:"lvl"`
	Message   string                 `json:"msg"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger wraps a standard logger with category and file output
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	config    Config
	configMu  sync.RWMutex
	logLevel  int // 0=debug, 1=info, 2=warn, 3=error
)

// Log levels
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Initialize sets up the logging directory under root.
// Should be called once at startup; calling it again replaces the configuration.
func Initialize(root string, cfg Config) error {
	if root == "" {
		return fmt.Errorf("project root required")
	}

	CloseAll()

	configMu.Lock()
	config = cfg
	logLevel = parseLevel(cfg.Level)
	configMu.Unlock()

	if !cfg.DebugMode {
		logsDir = ""
		return nil // Silent no-op in production mode
	}

	dir := filepath.Join(root, ".anubis", "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	logsDir = dir

	boot := Get(CategoryBoot)
	boot.Info("=== Anubis logging initialized ===")
	boot.Info("Project root: %s", root)
	boot.Info("Log level: %s", cfg.Level)
	return nil
}

func parseLevel(level string) int {
	switch level {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return config.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !config.DebugMode {
		return false
	}
	if config.Categories == nil {
		return true // All enabled by default in debug mode
	}
	enabled, exists := config.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

func (l *Logger) write(level int, name, format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	configMu.RLock()
	min, jsonFormat := logLevel, config.JSONFormat
	configMu.RUnlock()
	if level < min {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if !jsonFormat {
		l.logger.Printf("[%s] %s", name, msg)
		return
	}
	data, err := json.Marshal(StructuredLogEntry{
		Timestamp: time.Now().UnixMilli(),
		Category:  string(l.category),
		Level:     name,
		Message:   msg,
	})
	if err != nil {
		l.logger.Printf("[%s] %s", name, msg)
		return
	}
	l.logger.Printf("%s", data)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "INFO", format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(LevelWarn, "WARN", format, args...)
}

// Error logs an error message (always logged if logger exists)
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, "ERROR", format, args...)
}

// StructuredLog writes a log entry with custom fields.
func (l *Logger) StructuredLog(level, msg string, fields map[string]interface{}) {
	if l.logger == nil {
		return
	}
	configMu.RLock()
	jsonFormat := config.JSONFormat
	configMu.RUnlock()
	if jsonFormat {
		data, err := json.Marshal(StructuredLogEntry{
			Timestamp: time.Now().UnixMilli(),
			Category:  string(l.category),
			Level:     level,
			Message:   msg,
			Fields:    fields,
		})
		if err == nil {
			l.logger.Printf("%s", data)
			return
		}
	}
	l.logger.Printf("[%s] %s | fields=%v", level, msg, fields)
}

// CloseAll closes all open log files (call at shutdown)
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// Writer logs to the writer category
func Writer(format string, args ...interface{}) { Get(CategoryWriter).Info(format, args...) }

// WriterDebug logs debug to the writer category
func WriterDebug(format string, args ...interface{}) { Get(CategoryWriter).Debug(format, args...) }

// Baseline logs to the baseline category
func Baseline(format string, args ...interface{}) { Get(CategoryBaseline).Info(format, args...) }

// BaselineDebug logs debug to the baseline category
func BaselineDebug(format string, args ...interface{}) {
	Get(CategoryBaseline).Debug(format, args...)
}

// Reconcile logs to the reconcile category
func Reconcile(format string, args ...interface{}) { Get(CategoryReconcile).Info(format, args...) }

// Journal logs to the journal category
func Journal(format string, args ...interface{}) { Get(CategoryJournal).Info(format, args...) }

// Manifest logs to the manifest category
func Manifest(format string, args ...interface{}) { Get(CategoryManifest).Info(format, args...) }

// Watch logs to the watch category
func Watch(format string, args ...interface{}) { Get(CategoryWatch).Info(format, args...) }

// WatchDebug logs debug to the watch category
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }
