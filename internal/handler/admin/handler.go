package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	"github.com/sss135790/quick-clinic/pkg/httputil"
)

type Handler struct {
	audit *audit.Service
}

func NewHandler(auditSvc *audit.Service) *Handler {
	return &Handler{audit: auditSvc}
}

type logQuery struct {
	Action string `form:"action" binding:"max=64"`
	UserID string `form:"userId" binding:"omitempty,uuid"`
	Limit  int    `form:"limit" binding:"omitempty,gte=1,lte=200"`
	Offset int    `form:"offset" binding:"omitempty,gte=0"`
}

func (q logQuery) filter() model.LogFilter {
	f := model.LogFilter{
		Action: q.Action,
		Page:   model.Page{Limit: q.Limit, Offset: q.Offset}.Normalize(),
	}
	if id, err := uuid.Parse(q.UserID); err == nil {
		f.UserID = &id
	}
	return f
}

func (h *Handler) RegisterRoutes(_, private *gin.RouterGroup) {
	admin := private.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/audit-logs", h.ListAuditLogs)
		admin.GET("/access-logs", h.ListAccessLogs)
	}
}

func (h *Handler) ListAuditLogs(c *gin.Context) {
	var q logQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	filter := q.filter()
	logs, total, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, logs, filter.Limit, filter.Offset, total)
}

func (h *Handler) ListAccessLogs(c *gin.Context) {
	var q logQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	filter := q.filter()
	logs, total, err := h.audit.ListAccess(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, logs, filter.Limit, filter.Offset, total)
}
