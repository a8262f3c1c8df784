package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/service/appointment"
	"github.com/sss135790/quick-clinic/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

type bookRequest struct {
	SlotID        uuid.UUID `json:"slotId" binding:"required"`
	PaymentMethod string    `json:"paymentMethod" binding:"required,oneof=ONLINE CASH"`
	Reason        string    `json:"reason" binding:"max=500"`
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type rescheduleRequest struct {
	SlotID uuid.UUID `json:"slotId" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=COMPLETED NO_SHOW"`
}

type listQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED COMPLETED CANCELLED NO_SHOW RESCHEDULED"`
}

func (h *Handler) RegisterRoutes(_, private *gin.RouterGroup) {
	appointments := private.Group("/appointments")
	{
		appointments.POST("", middleware.RequireRole(model.RolePatient), h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/cancel", middleware.RequireRole(model.RolePatient, model.RoleDoctor), h.CancelAppointment)
		appointments.POST("/:id/reschedule", middleware.RequireRole(model.RolePatient), h.RescheduleAppointment)
		appointments.PATCH("/:id/status", middleware.RequireRole(model.RoleDoctor), h.UpdateStatus)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req bookRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	detail, err := h.service.Book(c.Request.Context(), middleware.UserID(c), appointment.BookInput{
		SlotID:        req.SlotID,
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		Reason:        req.Reason,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, detail)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var q listQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	appointments, err := h.service.List(c.Request.Context(), handler.Actor(c), model.AppointmentStatus(q.Status))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.Get(c.Request.Context(), handler.Actor(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req cancelRequest
	// the body is optional
	if c.Request.ContentLength != 0 && !handler.BindJSON(c, &req) {
		return
	}

	detail, err := h.service.Cancel(c.Request.Context(), handler.Actor(c), id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req rescheduleRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	detail, err := h.service.Reschedule(c.Request.Context(), middleware.UserID(c), id, req.SlotID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	detail, err := h.service.UpdateStatus(c.Request.Context(), middleware.UserID(c), id, model.AppointmentStatus(req.Status))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}
