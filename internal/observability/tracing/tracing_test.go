package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestNewProviderDisabled(t *testing.T) {
	provider, err := NewProvider(nil, Config{Enabled: false}, zap.NewNop())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if provider == nil {
		t.Fatal("expected a provider even when disabled")
	}
}

func TestNewExporterRejectsUnknownProtocol(t *testing.T) {
	if _, err := newExporter("carrier-pigeon", ""); err == nil {
		t.Fatal("expected error for unknown protocol")
	}
}

func TestGinMiddlewareServesWithNoopProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider(nil, Config{Enabled: false}, zap.NewNop())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	r := gin.New()
	r.Use(GinMiddleware(provider))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
