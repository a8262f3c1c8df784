package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/handler/health"
	"github.com/sss135790/quick-clinic/internal/handler/page"
	userhandler "github.com/sss135790/quick-clinic/internal/handler/user"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository/memory"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	"github.com/sss135790/quick-clinic/internal/service/stats"
	"github.com/sss135790/quick-clinic/internal/service/user"
	"github.com/sss135790/quick-clinic/pkg/auth"
	"github.com/sss135790/quick-clinic/pkg/security"
	"github.com/sss135790/quick-clinic/pkg/validator"
)

func setup(t *testing.T) (*gin.Engine, *memory.Store, *auth.TokenService) {
	t.Helper()
	require.NoError(t, validator.RegisterWithGin())
	store := memory.NewStore()
	tokens := auth.NewTokenService("0123456789abcdef0123456789abcdef", time.Hour)

	userSvc := user.NewService(store.Users(), store.Profiles(), security.NoopEncryptor{}, audit.NewService(store.Audit()))
	statsSvc := stats.NewService(store.Stats(), store.Profiles(), "INR", time.Minute)

	r := NewRouter(
		tokens,
		store.Audit(),
		health.NewHandler(map[string]health.Check{"database": func(context.Context) error { return nil }}),
		page.NewHandler(statsSvc, tokens, auth.DefaultPolicy),
		[]handler.Registrar{userhandler.NewHandler(userSvc)},
		RouterConfig{
			Mode:          gin.TestMode,
			RateLimit:     rate.Inf,
			RateBurst:     1,
			CORSConfig:    middleware.DefaultCORSConfig(nil),
			Security:      middleware.DefaultSecurityConfig(false),
			SizeLimit:     middleware.DefaultSizeLimitConfig(),
			MetricsPrefix: "quickclinic_test",
			Registry:      prometheus.NewRegistry(),
		},
	)
	r.Setup()
	return r.Engine(), store, tokens
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	r, _, _ := setup(t)

	w := get(r, "/health/live", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = get(r, "/health/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	get(r, "/nowhere", "")

	w = get(r, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `quickclinic_test_requests_total{method="GET",path="/health/live",status="200"} 1`)
	assert.Contains(t, w.Body.String(), `path="unmatched"`)
}

func TestAuthenticatedRequestsAreAccessLogged(t *testing.T) {
	r, store, tokens := setup(t)
	u := &model.User{ID: uuid.New(), Email: "ravi@example.com", Name: "Ravi", Role: model.RolePatient}
	require.NoError(t, store.Users().Create(context.Background(), u))
	token, _, err := tokens.Issue(u.ID, u.Email, u.Role)
	require.NoError(t, err)

	w := get(r, "/api/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, store.AccessLogCount())

	w = get(r, "/api/users/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, 1, store.AccessLogCount())

	w = get(r, "/api/doctors", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.AccessLogCount())
}

func TestPagesRedirect(t *testing.T) {
	r, _, _ := setup(t)

	w := get(r, "/doctor", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, auth.LoginPath, w.Header().Get("Location"))
}
