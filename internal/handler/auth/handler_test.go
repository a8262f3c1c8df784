package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sss135790/quick-clinic/internal/config"
	"github.com/sss135790/quick-clinic/internal/email"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/repository/memory"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	authsvc "github.com/sss135790/quick-clinic/internal/service/auth"
	"github.com/sss135790/quick-clinic/internal/service/otp"
	"github.com/sss135790/quick-clinic/pkg/auth"
	"github.com/sss135790/quick-clinic/pkg/security"
	"github.com/sss135790/quick-clinic/pkg/validator"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterWithGin())

	store := memory.NewStore()
	tokens := auth.NewTokenService("0123456789abcdef0123456789abcdef", 7*24*time.Hour)
	svc := authsvc.NewService(store.Users(), tokens, security.NewBcryptHasher(bcrypt.MinCost), audit.NewService(store.Audit()))

	r := gin.New()
	api := r.Group("/api")
	private := api.Group("", middleware.Authenticate(tokens))
	NewHandler(svc, nil, config.CookieConfig{}, tokens.TTL(), nil).RegisterRoutes(api, private)
	return r
}

func do(r *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)
	return w
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSignupLoginMeLogout(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/auth/signup", `{"email":"asha@example.com","password":"s3cretpass","name":"Asha","role":"PATIENT"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = do(r, http.MethodPost, "/api/auth/signup", `{"email":"ASHA@example.com","password":"s3cretpass","name":"Asha","role":"PATIENT"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", `{"email":"asha@example.com","password":"s3cretpass"}`)
	require.Equal(t, http.StatusOK, w.Code)

	token := cookieByName(w, middleware.CookieToken)
	require.NotNil(t, token)
	assert.True(t, token.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, token.SameSite)
	assert.Equal(t, 7*24*3600, token.MaxAge)

	role := cookieByName(w, middleware.CookieRole)
	require.NotNil(t, role)
	assert.False(t, role.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, role.SameSite)
	assert.Equal(t, "PATIENT", role.Value)

	w = do(r, http.MethodGet, "/api/auth/me", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Claims struct {
				Role string `json:"role"`
			} `json:"claims"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "PATIENT", body.Data.Claims.Role)

	w = do(r, http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	cleared := cookieByName(w, middleware.CookieToken)
	require.NotNil(t, cleared)
	assert.Equal(t, "", cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestSignupValidation(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"short password", `{"email":"a@example.com","password":"short","name":"A","role":"PATIENT"}`},
		{"admin role", `{"email":"a@example.com","password":"longenough","name":"A","role":"ADMIN"}`},
		{"bad email", `{"email":"nope","password":"longenough","name":"A","role":"DOCTOR"}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/auth/signup", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r := setupRouter(t)
	do(r, http.MethodPost, "/api/auth/signup", `{"email":"dev@example.com","password":"s3cretpass","name":"Dev","role":"DOCTOR"}`)

	w := do(r, http.MethodPost, "/api/auth/login", `{"email":"dev@example.com","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, cookieByName(w, middleware.CookieToken))

	w = do(r, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendOTPDoesNotRevealAccounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterWithGin())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := memory.NewStore()
	tokens := auth.NewTokenService("0123456789abcdef0123456789abcdef", 7*24*time.Hour)
	svc := authsvc.NewService(store.Users(), tokens, security.NewBcryptHasher(bcrypt.MinCost), audit.NewService(store.Audit()))
	otpSvc := otp.NewService(otp.NewRedisStore(client), store.Users(), email.NewLogService(), audit.NewService(store.Audit()), nil, 5)

	r := gin.New()
	api := r.Group("/api")
	NewHandler(svc, otpSvc, config.CookieConfig{}, tokens.TTL(), nil).RegisterRoutes(api, api.Group(""))

	w := do(r, http.MethodPost, "/api/auth/signup", `{"email":"asha@example.com","password":"s3cretpass","name":"Asha","role":"PATIENT"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	known := do(r, http.MethodPost, "/api/auth/otp/send", `{"email":"asha@example.com"}`)
	unknown := do(r, http.MethodPost, "/api/auth/otp/send", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())
	assert.True(t, mr.Exists("otp:code:asha@example.com"))
	assert.False(t, mr.Exists("otp:code:nobody@example.com"))
}
