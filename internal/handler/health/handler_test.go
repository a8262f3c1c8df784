package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)

	down := errors.New("connection refused")
	tests := []struct {
		name      string
		dbErr     error
		redisErr  error
		want      int
		wantRedis string
	}{
		{"all up", nil, nil, http.StatusOK, "UP"},
		{"database down", down, nil, http.StatusServiceUnavailable, "UP"},
		{"redis down", nil, down, http.StatusServiceUnavailable, "DOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			NewHandler(map[string]Check{
				"database": func(context.Context) error { return tt.dbErr },
				"redis":    func(context.Context) error { return tt.redisErr },
			}).RegisterRoutes(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tt.want, w.Code)

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantRedis, body.Checks["redis"])
			assert.NotContains(t, w.Body.String(), "connection refused")

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}
