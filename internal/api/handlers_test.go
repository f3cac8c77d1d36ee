package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docmind/internal/config"
	"docmind/internal/store"
	"docmind/pkg/logger"

	"github.com/gin-gonic/gin"
)

func TestHealthReportsUnhealthyWhenDatabaseIsDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{App: config.AppInfo{Name: "DocMind", Version: "test"}}
	s := NewServer(cfg, logger.New("api-test"), store.NewStore(nil), nil, nil, nil, nil)

	r := gin.New()
	r.GET("/health", s.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unhealthy") {
		t.Errorf("body = %s, want an unhealthy report", w.Body.String())
	}
}
