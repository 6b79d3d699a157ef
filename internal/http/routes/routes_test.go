package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/hello-service/internal/http/root"
	"github.com/janisto/hello-service/internal/platform/metrics"
)

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestRootReturnsGreeting(t *testing.T) {
	resp := serve(NewRouter(Options{}), http.MethodGet, "/")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/plain" {
		t.Fatalf("expected text/plain, got %q", ct)
	}
	if body := resp.Body.String(); body != "Hello World" {
		t.Fatalf("expected body 'Hello World', got %q", body)
	}
}

func TestHealthzReturnsEmptyOK(t *testing.T) {
	resp := serve(NewRouter(Options{}), http.MethodGet, "/healthz")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", resp.Body.String())
	}
}

func TestUnknownPathsReturnNotFound(t *testing.T) {
	router := NewRouter(Options{})

	for _, path := range []string{"/nonexistent", "/healthz/extra", "/hello", "/openapi.json", "/api-docs"} {
		t.Run(path, func(t *testing.T) {
			resp := serve(router, http.MethodGet, path)
			if resp.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", resp.Code)
			}
			if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Fatalf("expected application/problem+json, got %q", ct)
			}
		})
	}
}

func TestUnsupportedMethodsReturnMethodNotAllowed(t *testing.T) {
	router := NewRouter(Options{})

	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/"},
		{http.MethodPut, "/"},
		{http.MethodDelete, "/"},
		{http.MethodPost, "/healthz"},
		{http.MethodPatch, "/healthz"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := serve(router, tt.method, tt.path)
			if resp.Code != http.StatusMethodNotAllowed {
				t.Fatalf("expected 405, got %d", resp.Code)
			}
			if allow := resp.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) {
				t.Fatalf("expected Allow header to list GET, got %q", allow)
			}

			var problem huma.ErrorModel
			if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
				t.Fatalf("failed to unmarshal 405 response: %v", err)
			}
			if problem.Status != http.StatusMethodNotAllowed {
				t.Fatalf("expected status 405, got %d", problem.Status)
			}
		})
	}
}

func TestResponsesAreIdempotent(t *testing.T) {
	router := NewRouter(Options{})

	for _, path := range []string{"/", "/healthz"} {
		t.Run(path, func(t *testing.T) {
			first := serve(router, http.MethodGet, path)
			for range 5 {
				next := serve(router, http.MethodGet, path)
				if next.Code != first.Code {
					t.Fatalf("status changed: %d then %d", first.Code, next.Code)
				}
				if !bytes.Equal(next.Body.Bytes(), first.Body.Bytes()) {
					t.Fatalf("body changed: %q then %q", first.Body.String(), next.Body.String())
				}
			}
		})
	}
}

func TestConcurrentRequests(t *testing.T) {
	router := NewRouter(Options{})
	srv := httptest.NewServer(router)
	defer srv.Close()

	errs := make(chan error, 20)
	for i := range 20 {
		go func() {
			path := "/"
			if i%2 == 1 {
				path = "/healthz"
			}
			resp, err := srv.Client().Get(srv.URL + path)
			if err != nil {
				errs <- err
				return
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != http.StatusOK {
				errs <- &statusError{path: path, code: resp.StatusCode}
				return
			}
			errs <- nil
		}()
	}
	for range 20 {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
	}
}

type statusError struct {
	path string
	code int
}

func (e *statusError) Error() string {
	return e.path + ": unexpected status " + http.StatusText(e.code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "routes-test-req")
	resp := httptest.NewRecorder()
	NewRouter(Options{}).ServeHTTP(resp, req)

	if got := resp.Header().Get(chimiddleware.RequestIDHeader); got != "routes-test-req" {
		t.Fatalf("expected request ID to be echoed, got %q", got)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	resp := serve(NewRouter(Options{}), http.MethodGet, "/")

	if got := resp.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
}

func TestDocsEnabledServesOpenAPI(t *testing.T) {
	router := NewRouter(Options{Version: "1.2.3", DocsEnabled: true})

	resp := serve(router, http.MethodGet, "/openapi.json")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &doc); err != nil {
		t.Fatalf("failed to unmarshal OpenAPI: %v", err)
	}
	if doc.Info.Title != apiTitle || doc.Info.Version != "1.2.3" {
		t.Fatalf("unexpected info: %+v", doc.Info)
	}
	if _, ok := doc.Paths["/"]; !ok {
		t.Fatalf("expected / in OpenAPI paths, got %v", doc.Paths)
	}

	if resp := serve(router, http.MethodGet, docsPath); resp.Code != http.StatusOK {
		t.Fatalf("expected docs UI at %s, got %d", docsPath, resp.Code)
	}
}

func TestMetricsRecorded(t *testing.T) {
	m := metrics.New()
	router := NewRouter(Options{Metrics: m})

	serve(router, http.MethodGet, "/")
	serve(router, http.MethodGet, "/healthz")
	serve(router, http.MethodGet, "/nonexistent")

	resp := httptest.NewRecorder()
	m.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := resp.Body.String()
	for _, want := range []string{
		`http_requests_total{method="GET",route="/",status="200"} 1`,
		`http_requests_total{method="GET",route="/healthz",status="200"} 1`,
		`http_requests_total{method="GET",route="unmatched",status="404"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics to contain %q", want)
		}
	}
}

func TestTracingEnabledStillServes(t *testing.T) {
	resp := serve(NewRouter(Options{TraceService: "hello"}), http.MethodGet, "/")

	if resp.Code != http.StatusOK || resp.Body.String() != root.Greeting {
		t.Fatalf("expected greeting with tracing enabled, got %d %q", resp.Code, resp.Body.String())
	}
}
