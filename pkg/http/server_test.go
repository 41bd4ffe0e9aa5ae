package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthEndpointRegistered(t *testing.T) {
	s := NewServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz: want %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestHealthEndpointReportsDependencyFailure(t *testing.T) {
	s := NewServer(nil, WithHealthCheck(func(context.Context) error {
		return errors.New("pool exhausted")
	}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("failing dependency check: want %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestMetricsEndpointRegistered(t *testing.T) {
	s := NewServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics: want %d, got %d", http.StatusOK, rec.Code)
	}
}
