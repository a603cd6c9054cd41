// Package logger configures zerolog for the campaign binaries.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with campaign pipeline helpers
type Logger struct {
	zerolog.Logger
}

// New writes to stdout: JSON by default, human-readable for "text" or "console".
func New(level string, format string) *Logger {
	return NewWriter(os.Stdout, level, format)
}

// NewWriter is New with the destination chosen by the caller.
func NewWriter(w io.Writer, level string, format string) *Logger {
	zerolog.SetGlobalLevel(parseLevel(level))
	if format == "text" || format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return &Logger{Logger: zerolog.New(w).With().Timestamp().Caller().Logger()}
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.With().Str(key, value).Logger()}
}

// WithComponent tags entries with the subsystem that wrote them
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithCampaign tags entries with the campaign being worked on
func (l *Logger) WithCampaign(name string) *Logger {
	return l.with("campaign", name)
}

// Delivery records the outcome of one recipient send.
func (l *Logger) Delivery(to string, err error) {
	if err != nil {
		l.Warn().Err(err).Str("to", to).Msg("send failed")
		return
	}
	l.Debug().Str("to", to).Msg("sent")
}

// HTTPRequest logs a finished request. 4xx is logged as a warning, 5xx as an error.
func (l *Logger) HTTPRequest(method, path string, statusCode int, duration time.Duration, requestID string) {
	event := l.Info()
	switch {
	case statusCode >= 500:
		event = l.Error()
	case statusCode >= 400:
		event = l.Warn()
	}
	event.
		Str("method", method).
		Str("path", path).
		Int("status", statusCode).
		Dur("duration", duration).
		Str("request_id", requestID).
		Msg("HTTP request")
}
