package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/requestdata"
	"github.com/aksidharth04/SetuAI-sub001/internal/services"
)

func testRouter(t *testing.T) (*gin.Engine, services.AuthService) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	log, _ := logger.New("development")
	authService, err := services.NewAuthService(log)
	if err != nil {
		t.Fatalf("init auth service: %v", err)
	}
	am := NewAuthMiddleware(log, authService)

	r := gin.New()
	protected := r.Group("/", am.RequireAuth())
	protected.GET("/me", func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID})
	})
	admin := protected.Group("/", am.RequireAdmin())
	admin.GET("/admin", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, authService
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 got %d", w.Code)
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 got %d", w.Code)
	}
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	r, authService := testRouter(t)

	token, err := authService.IssueToken(uuid.New(), uuid.New(), requestdata.RoleVendor)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestRequireAdminBlocksVendors(t *testing.T) {
	r, authService := testRouter(t)

	vendorToken, _ := authService.IssueToken(uuid.New(), uuid.New(), requestdata.RoleVendor)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+vendorToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("vendor on admin route: want 403 got %d", w.Code)
	}

	adminToken, _ := authService.IssueToken(uuid.New(), uuid.Nil, requestdata.RoleAdmin)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("admin on admin route: want 200 got %d", w.Code)
	}
}
