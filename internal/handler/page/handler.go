// Package page serves the role dashboards and the login/unauthorized entry
// points. Rendering lives in the client; these routes return JSON descriptors.
package page

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/service/stats"
	"github.com/sss135790/quick-clinic/pkg/auth"
	"github.com/sss135790/quick-clinic/pkg/httputil"
)

type Handler struct {
	stats  *stats.Service
	tokens *auth.TokenService
	policy auth.Policy
}

func NewHandler(statsSvc *stats.Service, tokens *auth.TokenService, policy auth.Policy) *Handler {
	return &Handler{stats: statsSvc, tokens: tokens, policy: policy}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET(auth.LoginPath, h.Login)
	r.GET(auth.UnauthorizedPath, h.Unauthorized)

	pages := r.Group("", middleware.Guard(h.tokens, h.policy), middleware.Cache(middleware.NoStoreConfig()))
	for _, rule := range h.policy {
		pages.GET(rule.Prefix, h.Dashboard)
		pages.GET(rule.Prefix+"/*path", h.Dashboard)
	}
}

func (h *Handler) Login(c *gin.Context) {
	httputil.RespondWithSuccess(c, gin.H{
		"page":   "login",
		"action": "/api/auth/login",
		"signup": "/api/auth/signup",
	})
}

func (h *Handler) Unauthorized(c *gin.Context) {
	c.JSON(http.StatusForbidden, httputil.Response{
		Status:  httputil.StatusError,
		Message: "you do not have access to this page",
		Data:    gin.H{"page": "unauthorized", "login": auth.LoginPath},
	})
}

// Dashboard only runs after Guard has admitted the caller for this area.
func (h *Handler) Dashboard(c *gin.Context) {
	claims, _ := middleware.Claims(c)
	ctx := c.Request.Context()

	var (
		summary interface{}
		err     error
	)
	switch claims.Role {
	case model.RoleAdmin:
		summary, err = h.stats.Admin(ctx)
	case model.RoleDoctor:
		summary, err = h.stats.Doctor(ctx, claims.UserID)
	case model.RolePatient:
		summary, err = h.stats.Patient(ctx, claims.UserID)
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{
		"page":    c.FullPath(),
		"path":    c.Request.URL.Path,
		"role":    claims.Role,
		"user":    gin.H{"id": claims.UserID, "email": claims.Email},
		"summary": summary,
	})
}
