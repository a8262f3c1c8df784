package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func issue(t *testing.T, tokens *auth.TokenService, role model.Role) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	token, _, err := tokens.Issue(id, "someone@example.com", role)
	require.NoError(t, err)
	return id, token
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	id, token := issue(t, tokens, model.RolePatient)

	r := gin.New()
	r.GET("/me", Authenticate(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c).String())
	})

	t.Run("bearer header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id.String(), w.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: CookieToken, Value: token})
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	_, doctor := issue(t, tokens, model.RoleDoctor)
	_, patient := issue(t, tokens, model.RolePatient)

	r := gin.New()
	r.GET("/slots", Authenticate(tokens), RequireRole(model.RoleDoctor), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for token, want := range map[string]int{doctor: http.StatusOK, patient: http.StatusForbidden} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/slots", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}

func TestGuard(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	_, admin := issue(t, tokens, model.RoleAdmin)
	_, patient := issue(t, tokens, model.RolePatient)

	r := gin.New()
	r.Use(Guard(tokens, auth.DefaultPolicy))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/admin", ok)
	r.GET("/auth/login", ok)

	tests := []struct {
		name     string
		path     string
		token    string
		code     int
		location string
	}{
		{"no cookie", "/admin", "", http.StatusFound, auth.LoginPath},
		{"invalid cookie", "/admin", "garbage", http.StatusFound, auth.LoginPath},
		{"wrong role", "/admin", patient, http.StatusFound, auth.UnauthorizedPath},
		{"right role", "/admin", admin, http.StatusOK, ""},
		{"public page", "/auth/login", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: CookieToken, Value: tt.token})
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}

type accessRecorder struct {
	mu      sync.Mutex
	entries []*model.AccessLog
	err     error
}

func (a *accessRecorder) CreateAccess(_ context.Context, entry *model.AccessLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return a.err
}

func TestAccessLog(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	id, token := issue(t, tokens, model.RolePatient)
	rec := &accessRecorder{}

	r := gin.New()
	r.Use(AccessLog(rec))
	r.GET("/public", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/appointments/:id", Authenticate(tokens), func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Empty(t, rec.entries)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/appointments/abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	assert.Equal(t, id, *entry.UserID)
	assert.Equal(t, "/appointments/:id", entry.Path)
	assert.Equal(t, http.StatusNotFound, entry.Status)

	rec.err = errors.New("db down")
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/appointments/abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)

	r := gin.New()
	r.POST("/auth/login", rl.RateLimit(ClientIPKey), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig([]string{"https://clinic.example"})))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://clinic.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://clinic.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "has spaces INJECTED")
	r.ServeHTTP(w, req)
	assert.NotContains(t, w.Body.String(), "INJECTED")
	assert.Equal(t, w.Body.String(), w.Header().Get(HeaderXRequestID))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(DefaultSecurityConfig(true)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
}

func TestCacheHeaders(t *testing.T) {
	r := gin.New()
	r.GET("/doctors", Cache(PublicCacheConfig()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doctors", nil))
	assert.Equal(t, "public, max-age=30, stale-while-revalidate=30", w.Header().Get("Cache-Control"))
}

func TestSizeLimit(t *testing.T) {
	cfg := DefaultSizeLimitConfig()
	cfg.MaxBodySize = 8

	r := gin.New()
	r.POST("/echo", SizeLimit(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
}
