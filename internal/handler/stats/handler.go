package stats

import (
	"github.com/gin-gonic/gin"

	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/service/stats"
	"github.com/sss135790/quick-clinic/pkg/httputil"
)

type Handler struct {
	svc *stats.Service
}

func NewHandler(svc *stats.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(_, private *gin.RouterGroup) {
	doctor := private.Group("/doctor", middleware.RequireRole(model.RoleDoctor))
	{
		doctor.GET("/balance", h.DoctorBalance)
		doctor.GET("/stats", h.DoctorStats)
	}
	private.GET("/patient/stats", middleware.RequireRole(model.RolePatient), h.PatientStats)
	private.GET("/admin/stats", middleware.RequireRole(model.RoleAdmin), h.AdminStats)
}

func (h *Handler) DoctorBalance(c *gin.Context) {
	balance, err := h.svc.Balance(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, balance)
}

func (h *Handler) DoctorStats(c *gin.Context) {
	st, err := h.svc.Doctor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, st)
}

func (h *Handler) PatientStats(c *gin.Context) {
	st, err := h.svc.Patient(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, st)
}

func (h *Handler) AdminStats(c *gin.Context) {
	st, err := h.svc.Admin(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, st)
}
