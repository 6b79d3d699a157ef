package middleware

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxRequestIDLength limits request ID size to prevent unbounded memory usage.
const maxRequestIDLength = 128

// validRequestID accepts printable ASCII only, so a client-supplied ID can be
// echoed into headers and logs without enabling injection.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := range len(id) {
		if c := id[i]; c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// RequestID stores a request identifier in the context under chi's RequestIDKey
// and echoes it in the X-Request-Id response header. A valid inbound
// X-Request-Id is reused; otherwise a UUIDv4 is generated.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(chimiddleware.RequestIDHeader)
			if !validRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(chimiddleware.RequestIDHeader, reqID)
			ctx := context.WithValue(r.Context(), chimiddleware.RequestIDKey, reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
