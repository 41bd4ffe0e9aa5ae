package api

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

func TestProgressStreamRoute(t *testing.T) {
	e := echo.New()
	NewProgressHub().RegisterRoutes(e)

	for _, r := range e.Routes() {
		if r.Method == http.MethodGet && r.Path == "/api/optimize/stream" {
			return
		}
	}
	t.Fatal("GET /api/optimize/stream not registered")
}

func TestProgressHubBroadcastWithoutClients(t *testing.T) {
	h := NewProgressHub()
	h.Broadcast(models.IterationRecord{Iteration: 1, Accepted: true})
	if n := h.ClientCount(); n != 0 {
		t.Fatalf("want 0 clients, got %d", n)
	}
}
