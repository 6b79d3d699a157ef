package middleware

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func TestVaryAddsAccept(t *testing.T) {
	h := Vary()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := resp.Header().Values("Vary"); !slices.Contains(got, "Accept") {
		t.Fatalf("expected Vary to contain Accept, got %v", got)
	}
}

func TestVaryPreservesExistingValues(t *testing.T) {
	h := Vary()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	got := resp.Header().Values("Vary")
	if !slices.Contains(got, "Accept") || !slices.Contains(got, "Origin") {
		t.Fatalf("expected Vary to contain Accept and Origin, got %v", got)
	}
}
