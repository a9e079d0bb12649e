package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Leveled logger used by the gateway: printf-style helpers for call sites that only
// need a message, and L() for structured fields.

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout)
	level  = zerolog.InfoLevel
)

func newLogger(w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).With().Timestamp().Logger()
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "fatal":
		level = zerolog.FatalLevel
	default:
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)
}

// SetOutput redirects log output, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w).Level(level)
}

// L returns the underlying zerolog logger for structured events.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func Debugf(format string, v ...interface{}) { L().Debug().Msgf(format, v...) }
func Infof(format string, v ...interface{})  { L().Info().Msgf(format, v...) }
func Warnf(format string, v ...interface{})  { L().Warn().Msgf(format, v...) }
func Errorf(format string, v ...interface{}) { L().Error().Msgf(format, v...) }

// Fatalf logs regardless of level and exits.
func Fatalf(format string, v ...interface{}) {
	l := L().Level(zerolog.DebugLevel)
	l.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	os.Exit(1)
}
