package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	"github.com/sss135790/quick-clinic/internal/service/notification"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
	"github.com/sss135790/quick-clinic/pkg/metrics"
)

const HoldExpiredReason = "payment window expired"

type Service struct {
	appointments repository.AppointmentRepository
	slots        repository.SlotRepository
	notifier     notification.Notifier
	auditor      audit.Recorder
	metrics      *metrics.Metrics
	holdDuration time.Duration
	loc          *time.Location
	now          func() time.Time
}

func NewService(
	appointments repository.AppointmentRepository,
	slots repository.SlotRepository,
	notifier notification.Notifier,
	auditor audit.Recorder,
	m *metrics.Metrics,
	holdDuration time.Duration,
) *Service {
	return &Service{
		appointments: appointments,
		slots:        slots,
		notifier:     notifier,
		auditor:      auditor,
		metrics:      m,
		holdDuration: holdDuration,
		loc:          time.UTC,
		now:          time.Now,
	}
}

// WithLocation sets the zone slot wall-clock times are interpreted in.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// Actor is the authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role model.Role
}

type BookInput struct {
	SlotID        uuid.UUID
	PaymentMethod model.PaymentMethod
	Reason        string
}

func (s *Service) Book(ctx context.Context, patientID uuid.UUID, in BookInput) (*model.AppointmentDetail, error) {
	if in.PaymentMethod != model.PaymentMethodOnline && in.PaymentMethod != model.PaymentMethodCash {
		return nil, apperrors.BadRequest("paymentMethod must be ONLINE or CASH", nil)
	}

	slot, err := s.bookableSlot(ctx, in.SlotID)
	if err != nil {
		s.metrics.Booking(string(in.PaymentMethod), "rejected")
		return nil, err
	}

	now := s.now()
	appt := &model.Appointment{
		Base:          model.NewBase(now),
		DoctorID:      slot.DoctorID,
		PatientID:     patientID,
		SlotID:        slot.ID,
		PaymentMethod: in.PaymentMethod,
	}
	if in.Reason != "" {
		appt.Reason = &in.Reason
	}

	slotStatus := model.SlotStatusBooked
	appt.Status = model.AppointmentStatusConfirmed
	if in.PaymentMethod == model.PaymentMethodOnline {
		slotStatus = model.SlotStatusHeld
		appt.Status = model.AppointmentStatusPending
		expires := now.Add(s.holdDuration)
		appt.HoldExpiresAt = &expires
	}

	if err := s.appointments.Book(ctx, appt, slotStatus); err != nil {
		s.metrics.Booking(string(in.PaymentMethod), "conflict")
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("slot is no longer available", err)
		}
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}
	s.metrics.Booking(string(in.PaymentMethod), "ok")

	when := slotLabel(slot)
	s.notify(ctx, appt.DoctorID, fmt.Sprintf("New appointment booked for %s", when))
	if appt.Status == model.AppointmentStatusPending {
		s.notify(ctx, patientID, fmt.Sprintf("Slot on %s is held for you. Complete payment within %d minutes.", when, int(s.holdDuration.Minutes())))
	} else {
		s.notify(ctx, patientID, fmt.Sprintf("Your appointment on %s is confirmed", when))
	}
	s.auditor.Record(ctx, model.AuditActionAppointmentCreate, &patientID, &appt.ID, map[string]interface{}{
		"slotId":        slot.ID,
		"paymentMethod": in.PaymentMethod,
	})

	return s.appointments.Get(ctx, appt.ID)
}

func (s *Service) List(ctx context.Context, actor Actor, status model.AppointmentStatus) ([]*model.AppointmentDetail, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.BadRequest("invalid appointment status", nil)
	}
	filter := model.AppointmentFilter{Status: status}
	switch actor.Role {
	case model.RoleDoctor:
		filter.DoctorID = &actor.ID
	case model.RolePatient:
		filter.PatientID = &actor.ID
	}

	items, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	if items == nil {
		items = []*model.AppointmentDetail{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.AppointmentDetail, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin && !appt.IsParticipant(actor.ID) {
		return nil, apperrors.Forbidden("forbidden")
	}
	return appt, nil
}

func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*model.AppointmentDetail, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.IsParticipant(actor.ID) {
		return nil, apperrors.Forbidden("forbidden")
	}
	if !appt.Status.CanTransition(model.AppointmentStatusCancelled) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot cancel a %s appointment", appt.Status), nil)
	}

	if err := s.appointments.Cancel(ctx, id, appt.Status, reason); err != nil {
		return nil, s.conflict(err, "failed to cancel appointment")
	}

	other := appt.DoctorID
	if actor.ID == appt.DoctorID {
		other = appt.PatientID
	}
	s.notify(ctx, other, fmt.Sprintf("Appointment on %s was cancelled", detailLabel(appt)))
	s.auditor.Record(ctx, model.AuditActionAppointmentCancel, &actor.ID, &id, map[string]interface{}{"reason": reason})

	return s.appointments.Get(ctx, id)
}

func (s *Service) Reschedule(ctx context.Context, patientID, id, newSlotID uuid.UUID) (*model.AppointmentDetail, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != patientID {
		return nil, apperrors.Forbidden("forbidden")
	}
	if !appt.Status.CanTransition(model.AppointmentStatusRescheduled) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot reschedule a %s appointment", appt.Status), nil)
	}
	if newSlotID == appt.SlotID {
		return nil, apperrors.BadRequest("new slot must differ from the current slot", nil)
	}

	slot, err := s.bookableSlot(ctx, newSlotID)
	if err != nil {
		return nil, err
	}
	if slot.DoctorID != appt.DoctorID {
		return nil, apperrors.BadRequest("new slot must belong to the same doctor", nil)
	}

	oldID := appt.ID
	next := &model.Appointment{
		Base:            model.NewBase(s.now()),
		DoctorID:        appt.DoctorID,
		PatientID:       appt.PatientID,
		SlotID:          slot.ID,
		Status:          appt.Status,
		PaymentMethod:   appt.PaymentMethod,
		Reason:          appt.Reason,
		RescheduledFrom: &oldID,
	}
	if err := s.appointments.Reschedule(ctx, oldID, appt.Status, next, model.SlotStatusBooked); err != nil {
		return nil, s.conflict(err, "failed to reschedule appointment")
	}

	s.notify(ctx, appt.DoctorID, fmt.Sprintf("Appointment on %s moved to %s", detailLabel(appt), slotLabel(slot)))
	s.auditor.Record(ctx, model.AuditActionAppointmentResched, &patientID, &next.ID, map[string]interface{}{
		"from":   oldID,
		"slotId": slot.ID,
	})

	return s.appointments.Get(ctx, next.ID)
}

func (s *Service) UpdateStatus(ctx context.Context, doctorID, id uuid.UUID, to model.AppointmentStatus) (*model.AppointmentDetail, error) {
	if to != model.AppointmentStatusCompleted && to != model.AppointmentStatusNoShow {
		return nil, apperrors.BadRequest("status must be COMPLETED or NO_SHOW", nil)
	}
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, apperrors.Forbidden("forbidden")
	}
	if !appt.Status.CanTransition(to) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot change appointment from %s to %s", appt.Status, to), nil)
	}

	if err := s.appointments.UpdateStatus(ctx, id, appt.Status, to); err != nil {
		return nil, s.conflict(err, "failed to update appointment")
	}

	s.auditor.Record(ctx, model.AuditActionAppointmentStatus, &doctorID, &id, map[string]interface{}{
		"from": appt.Status,
		"to":   to,
	})
	return s.appointments.Get(ctx, id)
}

// ReleaseExpiredHolds cancels PENDING appointments whose payment window has
// passed and frees their slots. It returns how many holds were released.
func (s *Service) ReleaseExpiredHolds(ctx context.Context, limit int) (int, error) {
	expired, err := s.appointments.ListExpiredHolds(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired holds: %w", err)
	}

	released := 0
	for _, appt := range expired {
		if err := ctx.Err(); err != nil {
			return released, err
		}
		err := s.appointments.Cancel(ctx, appt.ID, model.AppointmentStatusPending, HoldExpiredReason)
		if errors.Is(err, repository.ErrConflict) {
			// paid or cancelled since it was listed
			continue
		}
		if err != nil {
			return released, fmt.Errorf("failed to release hold %s: %w", appt.ID, err)
		}

		released++
		s.metrics.HoldReleased()
		s.notify(ctx, appt.PatientID, "Your slot hold expired because payment was not completed")
		s.auditor.Record(ctx, model.AuditActionAppointmentExpired, nil, &appt.ID, map[string]interface{}{"slotId": appt.SlotID})
	}
	return released, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	appt, err := s.appointments.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) bookableSlot(ctx context.Context, slotID uuid.UUID) (*model.Slot, error) {
	slot, err := s.slots.Get(ctx, slotID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("slot", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	if slot.Status != model.SlotStatusAvailable {
		return nil, apperrors.Conflict("slot is not available", nil)
	}
	if slotStart(slot, s.loc).Before(s.now()) {
		return nil, apperrors.BadRequest("slot has already started", nil)
	}
	return slot, nil
}

func (s *Service) conflict(err error, msg string) error {
	if errors.Is(err, repository.ErrConflict) {
		return apperrors.Conflict("appointment or slot changed concurrently", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, message); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to notify user")
	}
}

func slotStart(slot *model.Slot, loc *time.Location) time.Time {
	start, err := time.Parse("15:04", slot.StartTime)
	if err != nil {
		return slot.Date
	}
	y, m, d := slot.Date.Date()
	return time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, loc)
}

func slotLabel(slot *model.Slot) string {
	return fmt.Sprintf("%s %s-%s", slot.Date.Format("2006-01-02"), slot.StartTime, slot.EndTime)
}

func detailLabel(a *model.AppointmentDetail) string {
	return fmt.Sprintf("%s %s-%s", a.SlotDate.Format("2006-01-02"), a.StartTime, a.EndTime)
}
