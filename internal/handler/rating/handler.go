package rating

import (
	"github.com/gin-gonic/gin"

	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/service/rating"
	"github.com/sss135790/quick-clinic/pkg/httputil"
)

type Handler struct {
	svc *rating.Service
}

func NewHandler(svc *rating.Service) *Handler {
	return &Handler{svc: svc}
}

// The 1..5 range is checked by the service so the message stays fixed.
type rateRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment" binding:"omitempty,max=1000"`
}

type commentsQuery struct {
	Limit int `form:"limit" binding:"omitempty,gte=1,lte=100"`
}

func (h *Handler) RegisterRoutes(public, private *gin.RouterGroup) {
	public.GET("/doctors/:doctorId/rating", h.Aggregate)
	public.GET("/doctors/:doctorId/comments", h.Comments)
	private.POST("/doctors/:doctorId/rating", middleware.RequireRole(model.RolePatient), h.Rate)
}

func (h *Handler) Rate(c *gin.Context) {
	doctorID, ok := handler.ParamUUID(c, "doctorId")
	if !ok {
		return
	}
	var req rateRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	agg, err := h.svc.Rate(c.Request.Context(), middleware.UserID(c), doctorID, req.Rating, req.Comment)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, agg)
}

func (h *Handler) Aggregate(c *gin.Context) {
	doctorID, ok := handler.ParamUUID(c, "doctorId")
	if !ok {
		return
	}
	agg, err := h.svc.Aggregate(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, agg)
}

func (h *Handler) Comments(c *gin.Context) {
	doctorID, ok := handler.ParamUUID(c, "doctorId")
	if !ok {
		return
	}
	var q commentsQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	comments, err := h.svc.Comments(c.Request.Context(), doctorID, q.Limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, comments)
}
