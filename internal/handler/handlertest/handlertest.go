// Package handlertest builds gin engines and requests for handler tests.
package handlertest

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/pkg/auth"
	"github.com/sss135790/quick-clinic/pkg/validator"
)

const Secret = "0123456789abcdef0123456789abcdef"

// Server is a test engine with the same public/private split as the router.
type Server struct {
	Engine *gin.Engine
	Tokens *auth.TokenService
}

func NewServer(t *testing.T, handlers ...handler.Registrar) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterWithGin())

	tokens := auth.NewTokenService(Secret, time.Hour)
	r := gin.New()
	api := r.Group("/api")
	private := api.Group("", middleware.Authenticate(tokens))
	for _, h := range handlers {
		h.RegisterRoutes(api, private)
	}
	return &Server{Engine: r, Tokens: tokens}
}

// Token signs a session for the user.
func (s *Server) Token(t *testing.T, u *model.User) string {
	t.Helper()
	token, _, err := s.Tokens.Issue(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return token
}

// Do sends a JSON request, authenticated when token is not empty.
func (s *Server) Do(method, path, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	s.Engine.ServeHTTP(w, req)
	return w
}

// Decode unmarshals the data field of the response envelope into v.
func Decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// Message returns the message field of the response envelope.
func Message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Message
}

// NewUser builds a user with a unique email; callers persist it.
func NewUser(role model.Role, name string) *model.User {
	now := time.Now()
	id := uuid.New()
	return &model.User{
		ID:        id,
		Email:     strings.ToLower(name) + "-" + id.String()[:8] + "@example.com",
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

