package slot

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/service/slot"
	"github.com/sss135790/quick-clinic/pkg/httputil"
	"github.com/sss135790/quick-clinic/pkg/validator"
)

type Handler struct {
	svc *slot.Service
}

func NewHandler(svc *slot.Service) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	Date      string `json:"date" binding:"required,isodate"`
	StartTime string `json:"startTime" binding:"required,hhmm"`
	EndTime   string `json:"endTime" binding:"required,hhmm"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=AVAILABLE UNAVAILABLE CANCELLED"`
}

type listQuery struct {
	Date   string `form:"date" binding:"omitempty,isodate"`
	Status string `form:"status" binding:"omitempty,oneof=AVAILABLE HELD BOOKED UNAVAILABLE CANCELLED"`
}

func (q listQuery) filter() model.SlotFilter {
	f := model.SlotFilter{Status: model.SlotStatus(q.Status)}
	if q.Date != "" {
		d, _ := time.Parse(validator.DateLayout, q.Date)
		f.Date = &d
	}
	return f
}

func (h *Handler) RegisterRoutes(public, private *gin.RouterGroup) {
	public.GET("/doctors/:doctorId/slots", h.ListDoctorSlots)

	own := private.Group("/doctor/slots", middleware.RequireRole(model.RoleDoctor))
	{
		own.POST("", h.Create)
		own.GET("", h.ListOwn)
		own.PATCH("/:slotId", h.UpdateStatus)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	date, _ := time.Parse(validator.DateLayout, req.Date)

	s, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), slot.CreateInput{
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, s)
}

func (h *Handler) ListDoctorSlots(c *gin.Context) {
	doctorID, ok := handler.ParamUUID(c, "doctorId")
	if !ok {
		return
	}
	h.list(c, doctorID)
}

func (h *Handler) ListOwn(c *gin.Context) {
	h.list(c, middleware.UserID(c))
}

func (h *Handler) list(c *gin.Context, doctorID uuid.UUID) {
	var q listQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	slots, err := h.svc.List(c.Request.Context(), doctorID, q.filter())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	slotID, ok := handler.ParamUUID(c, "slotId")
	if !ok {
		return
	}
	var req statusRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	s, err := h.svc.UpdateStatus(c.Request.Context(), middleware.UserID(c), slotID, model.SlotStatus(req.Status))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, s)
}
