package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
)

// Setup initializes the global logger based on configuration
func Setup(cfg *config.LoggingConfig, env string) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output io.Writer
	if cfg.Format == "json" || env == "production" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Str("service", "tiksaver").
		Logger()
}

// NewLogger creates a new logger with additional context
func NewLogger(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// RequestLogger is a Gin middleware for structured request logging.
// Query strings are not logged as they carry API keys.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		requestID := c.GetString("request_id")

		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		} else if c.Writer.Status() >= 400 {
			event = log.Warn()
		}

		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", SanitizeForLog(c.Request.UserAgent(), 200)).
			Int("body_size", c.Writer.Size()).
			Msg("HTTP request")
	}
}

// LogSecurityEvent logs security-related events
func LogSecurityEvent(eventType, clientIP, details string) {
	log.Warn().
		Str("event_type", eventType).
		Str("client_ip", clientIP).
		Str("details", details).
		Msg("Security event")
}

// RedactKey masks an API key so that only its prefix and the last four
// characters remain, e.g. "hasan_key_…a1b2".
func RedactKey(key string) string {
	const visiblePrefix = 10
	if len(key) <= visiblePrefix+4 {
		return strings.Repeat("*", len(key))
	}
	return key[:visiblePrefix] + "…" + key[len(key)-4:]
}

// SanitizeForLog truncates untrusted strings for logging
func SanitizeForLog(data string, maxLen int) string {
	if len(data) > maxLen {
		return data[:maxLen] + "...[truncated]"
	}
	return data
}
