package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docmind/internal/auth"

	"github.com/gin-gonic/gin"
)

func middlewareRouter(authMgr *auth.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(authMgr))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": userID(c)})
	})
	return r
}

func TestAuthMiddlewareAcceptsValidAccessToken(t *testing.T) {
	authMgr := auth.NewManager("test-secret", time.Hour, 24*time.Hour)
	r := middlewareRouter(authMgr)

	token, err := authMgr.CreateAccessToken("user-123")
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	authMgr := auth.NewManager("test-secret", time.Hour, 24*time.Hour)
	r := middlewareRouter(authMgr)

	refresh, err := authMgr.CreateRefreshToken("user-123")
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}
	otherIssuer := auth.NewManager("other-secret", time.Hour, 24*time.Hour)
	forged, err := otherIssuer.CreateAccessToken("user-123")
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.token"},
		{"refresh token as access", "Bearer " + refresh},
		{"wrong signing secret", "Bearer " + forged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}
