// Package logger provides the process-wide zap logger and the context
// plumbing used to carry a run-scoped logger through the pipeline.
package logger

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	once   sync.Once
	logger *zap.SugaredLogger
)

// Get initializes the shared zap.SugaredLogger on first use and returns the
// same instance for subsequent calls. LOG_LEVEL selects the minimum level
// and JSON_LOG switches from console to JSON encoding.
func Get() *zap.SugaredLogger {
	once.Do(func() {
		level := zap.InfoLevel
		if levelEnv := os.Getenv("LOG_LEVEL"); levelEnv != "" {
			if parsed, err := zapcore.ParseLevel(levelEnv); err == nil {
				level = parsed
			}
		}

		var encoder zapcore.Encoder
		if os.Getenv("JSON_LOG") != "" {
			cfg := zap.NewProductionEncoderConfig()
			cfg.TimeKey = "timestamp"
			cfg.EncodeTime = zapcore.ISO8601TimeEncoder
			encoder = zapcore.NewJSONEncoder(cfg)
		} else {
			cfg := zap.NewDevelopmentEncoderConfig()
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
			encoder = zapcore.NewConsoleEncoder(cfg)
		}

		core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(level))
		logger = zap.New(core).Sugar()
	})

	return logger
}

// FromCtx returns the logger attached to ctx, falling back to the shared
// logger. Extra key/value pairs are added to the returned logger.
func FromCtx(ctx context.Context, with ...any) *zap.SugaredLogger {
	l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger)
	if !ok {
		l = Get()
	}
	if len(with) == 0 {
		return l
	}
	return l.With(with...)
}

// WithCtx returns a copy of ctx carrying l.
func WithCtx(ctx context.Context, l *zap.SugaredLogger) context.Context {
	if existing, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok && existing == l {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, l)
}
