package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sss135790/quick-clinic/internal/config"
	"github.com/sss135790/quick-clinic/internal/email"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	"github.com/sss135790/quick-clinic/internal/service/notification"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
	"github.com/sss135790/quick-clinic/pkg/gateway"
	"github.com/sss135790/quick-clinic/pkg/metrics"
)

type Repositories struct {
	Payments     repository.PaymentRepository
	Appointments repository.AppointmentRepository
	Profiles     repository.ProfileRepository
	Users        repository.UserRepository
}

type Service struct {
	repos    Repositories
	gateway  gateway.Gateway
	mailer   email.Service
	notifier notification.Notifier
	auditor  audit.Recorder
	metrics  *metrics.Metrics
	cfg      config.PaymentConfig
	now      func() time.Time
}

func NewService(
	repos Repositories,
	gw gateway.Gateway,
	mailer email.Service,
	notifier notification.Notifier,
	auditor audit.Recorder,
	m *metrics.Metrics,
	cfg config.PaymentConfig,
) *Service {
	return &Service{
		repos:    repos,
		gateway:  gw,
		mailer:   mailer,
		notifier: notifier,
		auditor:  auditor,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// MaxIdempotencyKeyLen bounds the Idempotency-Key header. Longer keys are
// rejected rather than shortened, so distinct keys never collide.
const MaxIdempotencyKeyLen = 64

type OrderInput struct {
	Amount         int64
	Currency       string
	AppointmentID  *uuid.UUID
	IdempotencyKey string
}

type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
}

type VerifyResult struct {
	Payment         *model.Payment     `json:"payment"`
	Appointment     *model.Appointment `json:"appointment,omitempty"`
	AlreadyVerified bool               `json:"alreadyVerified"`
}

// CreateOrder opens a processor order and records it as a CREATED payment.
// Repeating a request with the same idempotency key returns the first payment.
// Reusing the key for a different amount, currency or appointment is a conflict.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, in OrderInput) (*model.Payment, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.cfg.Currency
	}
	if in.Amount <= 0 {
		return nil, apperrors.BadRequest("amount must be positive", nil)
	}
	if s.cfg.MaxAmount > 0 && in.Amount > s.cfg.MaxAmount {
		return nil, apperrors.BadRequest(fmt.Sprintf("amount must not exceed %d", s.cfg.MaxAmount), nil)
	}

	var key *string
	if k := strings.TrimSpace(in.IdempotencyKey); k != "" {
		if len(k) > MaxIdempotencyKeyLen {
			return nil, apperrors.BadRequest(fmt.Sprintf("Idempotency-Key must be at most %d characters", MaxIdempotencyKeyLen), nil)
		}
		key = &k
		existing, err := s.repos.Payments.GetByIdempotencyKey(ctx, userID, k)
		if err == nil {
			return replay(existing, in.Amount, currency, in.AppointmentID)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	if in.AppointmentID != nil {
		if err := s.checkAppointment(ctx, userID, *in.AppointmentID, in.Amount); err != nil {
			s.metrics.PaymentOrder("rejected")
			return nil, err
		}
	}

	receipt := uuid.NewString()
	if key != nil {
		receipt = *key
	}
	order, err := s.gateway.CreateOrder(ctx, in.Amount, currency, receipt)
	if err != nil {
		s.metrics.PaymentOrder("error")
		return nil, apperrors.Unavailable("payment processor unavailable", err)
	}

	payment := &model.Payment{
		Base:            model.NewBase(s.now()),
		UserID:          userID,
		AppointmentID:   in.AppointmentID,
		RazorpayOrderID: order.ID,
		Amount:          order.Amount,
		Currency:        order.Currency,
		Status:          model.PaymentStatusCreated,
		IdempotencyKey:  key,
		Receipt:         receipt,
	}

	created, err := s.repos.Payments.Create(ctx, payment)
	if err != nil {
		s.metrics.PaymentOrder("error")
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("idempotency key already used", err)
		}
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if !created && key != nil {
		// a concurrent request with the same key stored its order first
		s.metrics.PaymentOrder("replayed")
		stored, err := s.repos.Payments.GetByIdempotencyKey(ctx, userID, *key)
		if err != nil {
			return nil, fmt.Errorf("failed to load replayed payment: %w", err)
		}
		return replay(stored, in.Amount, currency, in.AppointmentID)
	}

	if order.Status != gateway.OrderStatusCreated {
		log.Warn().
			Str("order_id", order.ID).
			Str("order_status", order.Status).
			Msg("payment processor returned an unexpected order status")
	}

	s.metrics.PaymentOrder("ok")
	s.auditor.Record(ctx, model.AuditActionPaymentOrder, &userID, &payment.ID, map[string]interface{}{
		"orderId":     payment.RazorpayOrderID,
		"orderStatus": order.Status,
		"amount":      payment.Amount,
	})
	return payment, nil
}

// replay returns the payment stored under an idempotency key, provided the
// new request asks for the same order.
func replay(p *model.Payment, amount int64, currency string, appointmentID *uuid.UUID) (*model.Payment, error) {
	sameAppointment := (p.AppointmentID == nil && appointmentID == nil) ||
		(p.AppointmentID != nil && appointmentID != nil && *p.AppointmentID == *appointmentID)
	if p.Amount != amount || !strings.EqualFold(p.Currency, currency) || !sameAppointment {
		return nil, apperrors.Conflict("idempotency key reused with a different request", nil)
	}
	return p, nil
}

func (s *Service) checkAppointment(ctx context.Context, userID, appointmentID uuid.UUID, amount int64) error {
	appt, err := s.repos.Appointments.Get(ctx, appointmentID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return fmt.Errorf("failed to load appointment: %w", err)
	}
	if appt.PatientID != userID {
		return apperrors.Forbidden("forbidden")
	}
	if appt.PaymentMethod != model.PaymentMethodOnline {
		return apperrors.BadRequest("appointment is not paid online", nil)
	}
	if appt.Status != model.AppointmentStatusPending {
		return apperrors.Conflict("appointment is not awaiting payment", nil)
	}

	doctor, err := s.repos.Profiles.GetDoctor(ctx, appt.DoctorID)
	if err != nil {
		return fmt.Errorf("failed to load doctor: %w", err)
	}
	if amount != doctor.Fees {
		return apperrors.BadRequest(fmt.Sprintf("amount must equal the consultation fee of %d", doctor.Fees), nil)
	}
	return nil
}

// Verify checks the processor signature and settles the payment exactly once.
func (s *Service) Verify(ctx context.Context, userID uuid.UUID, in VerifyInput) (*VerifyResult, error) {
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, apperrors.BadRequest("orderId, paymentId and signature are required", nil)
	}

	payment, err := s.repos.Payments.GetByOrderID(ctx, in.OrderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("payment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.UserID != userID {
		return nil, apperrors.Forbidden("forbidden")
	}

	if !gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature, s.cfg.KeySecret) {
		s.metrics.PaymentVerification("mismatch")
		s.auditor.Record(ctx, model.AuditActionPaymentRejected, &userID, &payment.ID, map[string]interface{}{
			"orderId": in.OrderID,
		})
		return nil, apperrors.BadRequest("invalid payment signature", nil)
	}

	if payment.Status == model.PaymentStatusSuccess {
		s.metrics.PaymentVerification("duplicate")
		return &VerifyResult{Payment: payment, AlreadyVerified: true}, nil
	}

	settlement, err := s.repos.Payments.MarkSuccess(ctx, payment.ID, in.PaymentID)
	if errors.Is(err, repository.ErrConflict) {
		// settled by a concurrent verify
		s.metrics.PaymentVerification("duplicate")
		current, err := s.repos.Payments.GetByOrderID(ctx, in.OrderID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload payment: %w", err)
		}
		return &VerifyResult{Payment: current, AlreadyVerified: true}, nil
	}
	if err != nil {
		s.metrics.PaymentVerification("error")
		return nil, fmt.Errorf("failed to settle payment: %w", err)
	}

	s.metrics.PaymentVerification("ok")
	s.afterSettlement(ctx, settlement)
	return &VerifyResult{Payment: settlement.Payment, Appointment: settlement.Appointment}, nil
}

func (s *Service) afterSettlement(ctx context.Context, st *model.Settlement) {
	p := st.Payment
	amount := email.FormatAmount(p.Amount, p.Currency)

	s.auditor.Record(ctx, model.AuditActionPaymentVerified, &p.UserID, &p.ID, map[string]interface{}{
		"orderId":   p.RazorpayOrderID,
		"paymentId": p.RazorpayPaymentID,
		"amount":    p.Amount,
	})

	receipt := email.Receipt{
		OrderID:  p.RazorpayOrderID,
		Amount:   p.Amount,
		Currency: p.Currency,
		PaidAt:   p.UpdatedAt,
	}
	if p.RazorpayPaymentID != nil {
		receipt.PaymentID = *p.RazorpayPaymentID
	}

	switch {
	case st.Appointment != nil:
		s.notify(ctx, p.UserID, fmt.Sprintf("Payment of %s received. Your appointment is confirmed.", amount))
		s.notify(ctx, st.Appointment.DoctorID, "An appointment was confirmed after payment")
		if detail, err := s.repos.Appointments.Get(ctx, st.Appointment.ID); err == nil {
			receipt.DoctorName = detail.DoctorName
			receipt.PatientName = detail.PatientName
			receipt.Appointment = fmt.Sprintf("%s %s-%s", detail.SlotDate.Format("2006-01-02"), detail.StartTime, detail.EndTime)
		}
	case p.AppointmentID != nil:
		s.auditor.Record(ctx, model.AuditActionPaymentUnattributed, &p.UserID, &p.ID, map[string]interface{}{
			"appointmentId": p.AppointmentID,
		})
		s.notify(ctx, p.UserID, fmt.Sprintf("Payment of %s received, but the slot hold had expired. Please contact support.", amount))
	default:
		s.notify(ctx, p.UserID, fmt.Sprintf("Payment of %s received.", amount))
	}

	user, err := s.repos.Users.GetByID(ctx, p.UserID)
	if err != nil {
		log.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("receipt skipped: payer not found")
		return
	}
	if receipt.PatientName == "" {
		receipt.PatientName = user.Name
	}
	if err := s.mailer.SendPaymentReceipt(ctx, user.Email, receipt); err != nil {
		log.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("failed to send payment receipt")
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*model.Payment, error) {
	payments, err := s.repos.Payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	if payments == nil {
		payments = []*model.Payment{}
	}
	return payments, nil
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, message); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to notify user")
	}
}
