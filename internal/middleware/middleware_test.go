package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/auth"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	apierrors "github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthService(t *testing.T, secret string, ttl time.Duration) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(&config.AdminConfig{JWTSecret: secret, SessionTTL: ttl})
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	return svc
}

func adminRouter(v TokenValidator) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/admin", AdminAuth(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestAdminAuth_ValidToken(t *testing.T) {
	svc := newAuthService(t, "test-secret-key-for-jwt-testing", time.Hour)
	token, err := svc.IssueAdminToken()
	if err != nil {
		t.Fatalf("IssueAdminToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	w := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestAdminAuth_Rejects(t *testing.T) {
	svc := newAuthService(t, "test-secret-key-for-jwt-testing", time.Hour)
	other := newAuthService(t, "another-secret", time.Hour)
	foreign, err := other.IssueAdminToken()
	if err != nil {
		t.Fatalf("IssueAdminToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic YWRtaW46MTIzNDU2"},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not-a-token"},
		{"foreign secret", "Bearer " + foreign.AccessToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			adminRouter(svc).ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("Expected status 401, got %d", w.Code)
			}
			var resp apierrors.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Success {
				t.Error("Expected success=false")
			}
			if resp.RequestID == "" {
				t.Error("Expected request id in error response")
			}
		})
	}
}

func TestAdminAuth_ExpiredToken(t *testing.T) {
	svc := newAuthService(t, "test-secret-key-for-jwt-testing", time.Nanosecond)
	token, err := svc.IssueAdminToken()
	if err != nil {
		t.Fatalf("IssueAdminToken: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	w := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(w, req)

	var resp apierrors.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != apierrors.ErrTokenExpired {
		t.Errorf("Expected code %s, got %s", apierrors.ErrTokenExpired, resp.Code)
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestIDFromContext(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	if got := w.Header().Get("X-Request-ID"); got == "" || got != w.Body.String() {
		t.Errorf("Expected generated request id echoed, header=%q body=%q", got, w.Body.String())
	}

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("Expected upstream-id, got %q", got)
	}
}

func TestCORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS([]string{"*"}))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Expected *, got %q", got)
		}
	})

	t.Run("listed origin", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS([]string{"https://app.example"}))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "https://app.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
			t.Errorf("Expected echoed origin, got %q", got)
		}

		req = httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "https://evil.example")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Expected no CORS header, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS([]string{"*"}))
		router.POST("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/test", nil))
		if w.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", w.Code)
		}
	})
}
