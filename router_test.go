package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/fatkhan05/ai-try-on/internal/config"
	"github.com/fatkhan05/ai-try-on/internal/inflight"
	"github.com/fatkhan05/ai-try-on/internal/repository"
	"github.com/fatkhan05/ai-try-on/internal/tryon"
	"github.com/fatkhan05/ai-try-on/internal/usecase"
)

func TestNewRouterAppliesCORSOrigins(t *testing.T) {
	logger := zap.NewNop()
	uc := usecase.NewTryOnUseCase(
		repository.NewMemoryTryOnRepository(),
		usecase.NewMemoryCache(),
		inflight.NewLocalGuard(),
		tryon.NewMockGenerator(tryon.MockConfig{}),
		logger,
		usecase.Options{},
	)

	tests := []struct {
		name    string
		origins []string
		origin  string
		status  int
		allowed string
	}{
		{name: "wildcard", origins: []string{"*"}, origin: "https://anywhere.example.com", status: http.StatusNoContent, allowed: "*"},
		{name: "unset", origins: nil, origin: "https://anywhere.example.com", status: http.StatusNoContent, allowed: "*"},
		{name: "listed", origins: []string{"https://kiosk.example.com"}, origin: "https://kiosk.example.com", status: http.StatusNoContent, allowed: "https://kiosk.example.com"},
		{name: "not listed", origins: []string{"https://kiosk.example.com"}, origin: "https://evil.example.com", status: http.StatusForbidden, allowed: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{LogLevel: "info", CORSOrigins: tt.origins}
			router := newRouter(cfg, uc, logger)

			req := httptest.NewRequest(http.MethodOptions, "/api/ai-tryon", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
			if got := resp.Header().Get("Access-Control-Allow-Origin"); got != tt.allowed {
				t.Fatalf("expected allow origin %q, got %q", tt.allowed, got)
			}
		})
	}
}
