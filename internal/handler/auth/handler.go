package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sss135790/quick-clinic/internal/config"
	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/service/auth"
	"github.com/sss135790/quick-clinic/internal/service/otp"
	"github.com/sss135790/quick-clinic/pkg/httputil"
)

type Handler struct {
	svc     *auth.Service
	otp     *otp.Service
	cookies config.CookieConfig
	ttl     time.Duration
	limit   gin.HandlerFunc
}

// NewHandler wires the credential endpoints. limit guards signup, login and
// otp endpoints and may be nil.
func NewHandler(svc *auth.Service, otpSvc *otp.Service, cookies config.CookieConfig, ttl time.Duration, limit gin.HandlerFunc) *Handler {
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	return &Handler{svc: svc, otp: otpSvc, cookies: cookies, ttl: ttl, limit: limit}
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=120"`
	Role     string `json:"role" binding:"required,signup_role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type otpSendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type otpVerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

func (h *Handler) RegisterRoutes(public, private *gin.RouterGroup) {
	a := public.Group("/auth")
	{
		a.POST("/signup", h.limit, h.Signup)
		a.POST("/login", h.limit, h.Login)
		a.POST("/logout", h.Logout)
		a.POST("/otp/send", h.limit, h.SendOTP)
		a.POST("/otp/verify", h.limit, h.VerifyOTP)
	}
	private.GET("/auth/me", h.Me)
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.Signup(c.Request.Context(), auth.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.setSession(c, result.Token, string(result.User.Role), int(h.ttl.Seconds()))
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) Logout(c *gin.Context) {
	h.setSession(c, "", "", -1)
	httputil.RespondWithMessage(c, "logged out")
}

func (h *Handler) Me(c *gin.Context) {
	claims, _ := middleware.Claims(c)
	user, err := h.svc.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{
		"claims": gin.H{"id": claims.UserID, "email": claims.Email, "role": claims.Role},
		"user":   user,
	})
}

func (h *Handler) SendOTP(c *gin.Context) {
	var req otpSendRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if err := h.otp.Send(c.Request.Context(), req.Email); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "otp sent")
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req otpVerifyRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if err := h.otp.Verify(c.Request.Context(), req.Email, req.OTP); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "email verified")
}

// setSession writes both session cookies; maxAge < 0 clears them.
func (h *Handler) setSession(c *gin.Context, token, role string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.CookieToken,
		Value:    token,
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.CookieRole,
		Value:    role,
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
