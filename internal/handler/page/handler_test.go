package page

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository/memory"
	"github.com/sss135790/quick-clinic/internal/service/stats"
	"github.com/sss135790/quick-clinic/pkg/auth"
)

func TestPagesAreGuarded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	tokens := auth.NewTokenService("0123456789abcdef0123456789abcdef", time.Hour)

	r := gin.New()
	NewHandler(stats.NewService(store.Stats(), store.Profiles(), "INR", time.Minute), tokens, auth.DefaultPolicy).RegisterRoutes(r)

	sign := func(role model.Role) string {
		token, _, err := tokens.Issue(uuid.New(), "user@example.com", role)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name     string
		path     string
		token    string
		code     int
		location string
	}{
		{"login page is public", "/auth/login", "", http.StatusOK, ""},
		{"anonymous admin", "/admin", "", http.StatusFound, auth.LoginPath},
		{"patient on doctor sub-page", "/doctor/schedule", sign(model.RolePatient), http.StatusFound, auth.UnauthorizedPath},
		{"doctor on doctor sub-page", "/doctor/schedule", sign(model.RoleDoctor), http.StatusOK, ""},
		{"patient dashboard", "/patient", sign(model.RolePatient), http.StatusOK, ""},
		{"admin dashboard", "/admin", sign(model.RoleAdmin), http.StatusOK, ""},
		{"expired cookie", "/patient", "not-a-token", http.StatusFound, auth.LoginPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: middleware.CookieToken, Value: tt.token})
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}
