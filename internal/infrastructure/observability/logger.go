package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// LoggerOptions configures the process logger
type LoggerOptions struct {
	Service string
	Env     string
	// Level is a zerolog level name; empty selects debug in development and info elsewhere
	Level  string
	Output io.Writer
}

// InitLogger initializes the global zerolog logger
func InitLogger(opts LoggerOptions) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(parseLevel(opts.Level, opts.Env))

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if opts.Env == "development" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Str("service", opts.Service).
			Logger()
	} else {
		log.Logger = zerolog.New(out).
			With().
			Timestamp().
			Caller().
			Str("service", opts.Service).
			Logger()
	}
}

func parseLevel(level, env string) zerolog.Level {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
		return lvl
	}
	if env == "development" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

type loggerKey struct{}

// WithRequestLogger stores a request-scoped logger on ctx. Fields added later
// through AddLogFields are visible to every holder of the returned context.
func WithRequestLogger(ctx context.Context, requestID string) context.Context {
	logger := log.With().Str("request_id", requestID).Logger()
	return context.WithValue(ctx, loggerKey{}, &logger)
}

func requestLogger(ctx context.Context) (*zerolog.Logger, bool) {
	logger, ok := ctx.Value(loggerKey{}).(*zerolog.Logger)
	return logger, ok
}

// AddLogFields enriches the request logger stored on ctx in place
func AddLogFields(ctx context.Context, fields map[string]string) {
	logger, ok := requestLogger(ctx)
	if !ok {
		return
	}
	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		for k, v := range fields {
			c = c.Str(k, v)
		}
		return c
	})
}

// LoggerFromContext returns the request logger, or the global one, with trace context
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	base := log.Logger
	if logger, ok := requestLogger(ctx); ok {
		base = *logger
	}
	logger := base.With().Logger()

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		logger = logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return &logger
}
