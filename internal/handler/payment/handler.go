package payment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/service/payment"
	"github.com/sss135790/quick-clinic/pkg/httputil"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type Handler struct {
	svc   *payment.Service
	keyID string
}

// NewHandler takes the public processor key id, which checkout clients need
// alongside the order id.
func NewHandler(svc *payment.Service, keyID string) *Handler {
	return &Handler{svc: svc, keyID: keyID}
}

type orderRequest struct {
	Amount        int64      `json:"amount" binding:"required,gt=0"`
	Currency      string     `json:"currency" binding:"omitempty,currency"`
	AppointmentID *uuid.UUID `json:"appointmentId"`
}

type orderResponse struct {
	*model.Payment
	KeyID string `json:"keyId"`
}

// Fields are checked by the service so every missing field yields one message.
type verifyRequest struct {
	OrderID   string `json:"orderId" binding:"max=64"`
	PaymentID string `json:"paymentId" binding:"max=64"`
	Signature string `json:"signature" binding:"max=128"`
}

func (h *Handler) RegisterRoutes(_, private *gin.RouterGroup) {
	payments := private.Group("/payments")
	{
		payments.POST("/order", middleware.RequireRole(model.RolePatient), h.CreateOrder)
		payments.POST("/verify", middleware.RequireRole(model.RolePatient), h.Verify)
		payments.GET("", h.List)
	}
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req orderRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	p, err := h.svc.CreateOrder(c.Request.Context(), middleware.UserID(c), payment.OrderInput{
		Amount:         req.Amount,
		Currency:       req.Currency,
		AppointmentID:  req.AppointmentID,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, orderResponse{Payment: p, KeyID: h.keyID})
}

func (h *Handler) Verify(c *gin.Context) {
	var req verifyRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.svc.Verify(c.Request.Context(), middleware.UserID(c), payment.VerifyInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) List(c *gin.Context) {
	payments, err := h.svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, payments)
}
