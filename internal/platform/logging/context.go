package logging

import (
	"context"

	"go.uber.org/zap"
)

type (
	ctxLoggerKey  struct{}
	ctxTraceIDKey struct{}
)

// LoggerFromContext returns the request-scoped logger if present, otherwise the global logger.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Logger()
	}
	if l, ok := ctx.Value(ctxLoggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return Logger()
}

// TraceIDFromContext returns the correlation identifier (trace resource or request ID),
// or an empty string when the request carried neither.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxTraceIDKey{}).(string)
	return id
}

// LogDebug writes a debug message using the request-aware logger.
func LogDebug(ctx context.Context, msg string, fields ...zap.Field) {
	LoggerFromContext(ctx).Debug(msg, fields...)
}

// LogInfo writes an informational message using the request-aware logger.
func LogInfo(ctx context.Context, msg string, fields ...zap.Field) {
	LoggerFromContext(ctx).Info(msg, fields...)
}

// LogWarn writes a warning message using the request-aware logger.
func LogWarn(ctx context.Context, msg string, fields ...zap.Field) {
	LoggerFromContext(ctx).Warn(msg, fields...)
}

// LogError writes an error message and appends the error field when provided.
func LogError(ctx context.Context, msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	LoggerFromContext(ctx).Error(msg, fields...)
}

// LogFatal logs with fatal severity and terminates the process.
func LogFatal(ctx context.Context, msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	LoggerFromContext(ctx).Fatal(msg, fields...)
}

// WithLogger returns a copy of ctx carrying logger. Mostly useful in tests
// that want to observe what handlers log.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

func contextWithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTraceIDKey{}, traceID)
}
