package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shiftdesk/pkg/trace"
)

// NewLogger builds the development logger for "local" and the JSON
// production logger otherwise. LOG_LEVEL (debug, info, warn, error) overrides
// the default level.
func NewLogger(env string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zap.ParseAtomicLevel(lvl); err == nil {
			cfg.Level = parsed
		}
	}

	l, err := cfg.Build(zap.Fields(zap.String("env", env)))
	if err != nil {
		panic(err)
	}
	return l
}

// WithTrace returns logger annotated with the trace ID in ctx.
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if traceID := trace.FromContext(ctx); traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
