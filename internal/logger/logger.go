package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

// InitLogging configures the package logger. With a file path, JSON lines are
// appended to that file; otherwise a console writer on stderr is used.
func InitLogging(filePath string) {
	InitLoggingWithLevel(filePath, "info")
}

// InitLoggingWithLevel is InitLogging with an explicit level name
// (debug, info, warn, error).
func InitLoggingWithLevel(filePath, level string) {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var openErr error
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			out = f
		}
		openErr = err
	}
	SetOutput(out)
	SetLevel(level)
	if openErr != nil {
		log.Warn().Err(openErr).Str("path", filePath).Msg("falling back to stderr logging")
	}
}

// SetOutput redirects the package logger, mostly for tests.
func SetOutput(w io.Writer) {
	log = zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel sets the global level. Unknown names select info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Logger returns the package logger.
func Logger() *zerolog.Logger {
	return &log
}

// WithRequestID stores a request id that every log line for ctx will carry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the id stored by WithRequestID, if any.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func event(ctx context.Context, e *zerolog.Event) *zerolog.Event {
	if id := RequestID(ctx); id != "" {
		e = e.Str("request_id", id)
	}
	return e
}

func DebugLog(ctx context.Context, msg string) {
	event(ctx, log.Debug()).Msg(msg)
}

func InfoLog(ctx context.Context, msg string) {
	event(ctx, log.Info()).Msg(msg)
}

func WarnLog(ctx context.Context, msg string) {
	event(ctx, log.Warn()).Msg(msg)
}

func ErrorLog(ctx context.Context, msg string) {
	event(ctx, log.Error()).Msg(msg)
}
