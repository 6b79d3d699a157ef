package logging

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger stores a request-scoped logger in the context. The logger
// carries the request ID and, when available, the trace identifiers.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimiddleware.GetReqID(r.Context())
			project := projectID()

			var fields []zap.Field
			correlation := reqID
			if tc, ok := traceFromRequest(r); ok {
				fields = append(fields, tc.fields(project)...)
				correlation = tc.resource(project)
			}
			if reqID != "" {
				fields = append(fields, zap.String("requestId", reqID))
			}

			logger := Logger()
			if len(fields) > 0 {
				logger = logger.With(fields...)
			}
			ctx := contextWithTraceID(r.Context(), correlation)
			ctx = WithLogger(ctx, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLogger writes one structured summary per request using the request-scoped logger.
func AccessLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					fields = append(fields, zap.String("route", pattern))
				}
			}
			LoggerFromContext(r.Context()).Info("request completed", fields...)
		})
	}
}
