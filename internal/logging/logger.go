// Package logging provides logging for go-ticos, backed by logrus.
// WithField attaches structured fields; the SDK's own call sites (drop
// counters, coredump truncations, packetizer read failures) log
// printf-style messages.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ticos-sdk/go-ticos/internal/interfaces"
)

// Logger wraps a *logrus.Entry, implementing interfaces.Logger.
type Logger struct {
	entry *logrus.Entry
}

// LogLevel mirrors logrus levels without leaking the dependency into
// callers that only import this package for the Config/Level surface.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Config holds logging configuration.
type Config struct {
	Level  LogLevel
	Output io.Writer
	JSON   bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{Level: LevelInfo, Output: os.Stderr}
}

// NewLogger creates a new logger from config (nil uses DefaultConfig).
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(config.Level.logrusLevel())
	if config.JSON {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return &Logger{entry: logrus.NewEntry(base)}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// WithField returns a Logger that attaches key=value to every subsequent
// call, satisfying interfaces.Logger.
func (l *Logger) WithField(key string, value interface{}) interfaces.Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// Default returns the process default logger, creating it on first use.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault replaces the process default logger.
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

var _ interfaces.Logger = (*Logger)(nil)
