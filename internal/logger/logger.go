// Package logger provides the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		Prefix:          "prayerbook",
	})
)

// Config holds logger configuration
type Config struct {
	Debug bool
	Dir   string
}

// Init replaces the default stderr logger with one writing to a rotating
// file, mirrored to stderr in debug mode.
func Init(cfg Config) error {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "prayerbook.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	level := log.InfoLevel
	var writer io.Writer = io.MultiWriter(os.Stderr, fileWriter)
	if cfg.Debug {
		level = log.DebugLevel
	}

	l := log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "prayerbook",
	})

	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// SetOutput redirects the logger, mainly so tests can silence or capture it.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// Get returns the current logger.
func Get() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a sub-logger tagged with a component name.
func With(component string) *log.Logger {
	return Get().With("component", component)
}

func Debug(msg string, keyvals ...interface{}) {
	Get().Debug(msg, keyvals...)
}

func Info(msg string, keyvals ...interface{}) {
	Get().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	Get().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	Get().Error(msg, keyvals...)
}

// Fatal logs a fatal error and exits
func Fatal(msg string, keyvals ...interface{}) {
	Get().Fatal(msg, keyvals...)
	os.Exit(1)
}
