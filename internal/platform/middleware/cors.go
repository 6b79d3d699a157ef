package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows any origin to read the greeting and probe the service. Only
// safe methods are exposed since the service has no mutating routes.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id", "traceparent"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}
