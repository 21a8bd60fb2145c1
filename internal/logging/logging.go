// Package logging configures the notida logger from the environment.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w.
// NOTIDA_LOG_LEVEL: debug, info, warn, error (default: info)
// NOTIDA_LOG_PREFIX: prefix for log messages (default: "notida ")
func New(w io.Writer) *log.Logger {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	lg.SetLevel(ParseLevel(os.Getenv("NOTIDA_LOG_LEVEL")))

	prefix := os.Getenv("NOTIDA_LOG_PREFIX")
	if prefix == "" {
		prefix = "notida "
	}
	return lg.WithPrefix(prefix)
}

// ParseLevel maps a level name to a log level; unknown names mean info.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// IsDebug reports whether debug logging is requested by the environment.
func IsDebug() bool {
	return ParseLevel(os.Getenv("NOTIDA_LOG_LEVEL")) == log.DebugLevel
}

// NoColor reports whether colored terminal output is disabled.
func NoColor() bool {
	return os.Getenv("NOTIDA_NO_COLOR") != "" || os.Getenv("NO_COLOR") != ""
}
