package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/janisto/hello-service/internal/platform/logging"
)

const (
	contentTypeProblemJSON = "application/problem+json"
	contentTypeProblemCBOR = "application/problem+cbor"

	msgNotFound      = "resource not found"
	msgInternalError = "internal server error"
)

// probeMethods are checked against the route tree when building an Allow header.
var probeMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// WriteProblem renders an RFC 9457 problem document. CBOR is used when the
// client accepts it, JSON otherwise.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	problem := &huma.ErrorModel{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}

	contentType := contentTypeProblemJSON
	var (
		body []byte
		err  error
	)
	if acceptsCBOR(r) {
		contentType = contentTypeProblemCBOR
		body, err = cbor.Marshal(problem)
	} else {
		body, err = json.Marshal(problem)
	}
	if err != nil {
		logging.LogError(r.Context(), "problem encoding failed", err, zap.Int("status", status))
		http.Error(w, http.StatusText(status), status)
		return
	}

	logProblem(r, status, detail)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.LogDebug(r.Context(), "problem write failed", zap.Error(err))
	}
}

// NotFoundHandler answers requests for unregistered paths with 404.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, r, http.StatusNotFound, msgNotFound)
	}
}

// MethodNotAllowedHandler answers with 405 and an Allow header listing the
// methods registered for the path.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
		}
		WriteProblem(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
	}
}

// Recoverer converts panics into 500 problem responses. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				logging.LogError(r.Context(), "panic recovered", fmt.Errorf("%v", rec),
					zap.ByteString("stack", debug.Stack()))
				WriteProblem(w, r, http.StatusInternalServerError, msgInternalError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func acceptsCBOR(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, _ := strings.Cut(part, ";")
		switch strings.ToLower(strings.TrimSpace(mt)) {
		case "application/cbor", contentTypeProblemCBOR:
			return true
		}
	}
	return false
}

// allowedMethods asks chi's route tree which methods match the request path.
func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}

	path := rctx.RoutePath
	if path == "" {
		path = r.URL.RawPath
		if path == "" {
			path = r.URL.Path
		}
		if path == "" {
			path = "/"
		}
	}

	var allowed []string
	for _, method := range probeMethods {
		if rctx.Routes.Match(chi.NewRouteContext(), method, path) {
			allowed = append(allowed, method)
		}
	}
	return allowed
}

func logProblem(r *http.Request, status int, detail string) {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if status >= http.StatusInternalServerError {
		logging.LogError(r.Context(), detail, nil, fields...)
		return
	}
	logging.LogWarn(r.Context(), detail, fields...)
}
