package notification

import (
	"github.com/gin-gonic/gin"

	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/service/notification"
	"github.com/sss135790/quick-clinic/pkg/httputil"
)

type Handler struct {
	svc *notification.Service
}

func NewHandler(svc *notification.Service) *Handler {
	return &Handler{svc: svc}
}

type listQuery struct {
	Unread bool `form:"unread"`
}

func (h *Handler) RegisterRoutes(_, private *gin.RouterGroup) {
	n := private.Group("/users/:userId/notifications")
	{
		n.GET("", h.List)
		n.PATCH("/:notificationId", h.MarkRead)
		n.DELETE("/:notificationId", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.ParamUUID(c, "userId")
	if !ok {
		return
	}
	var q listQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	result, err := h.svc.List(c.Request.Context(), middleware.UserID(c), userID, q.Unread)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := handler.ParamUUID(c, "userId")
	if !ok {
		return
	}
	notificationID, ok := handler.ParamUUID(c, "notificationId")
	if !ok {
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), middleware.UserID(c), userID, notificationID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, n)
}

func (h *Handler) Delete(c *gin.Context) {
	userID, ok := handler.ParamUUID(c, "userId")
	if !ok {
		return
	}
	notificationID, ok := handler.ParamUUID(c, "notificationId")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), userID, notificationID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "notification deleted")
}
