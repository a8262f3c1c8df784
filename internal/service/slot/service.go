package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
)

type Service struct {
	slots    repository.SlotRepository
	profiles repository.ProfileRepository
	auditor  audit.Recorder
	now      func() time.Time
}

func NewService(slots repository.SlotRepository, profiles repository.ProfileRepository, auditor audit.Recorder) *Service {
	return &Service{slots: slots, profiles: profiles, auditor: auditor, now: time.Now}
}

type CreateInput struct {
	Date      time.Time
	StartTime string
	EndTime   string
}

// A doctor may only move slots that nobody is holding or has booked.
var doctorSettable = map[model.SlotStatus]bool{
	model.SlotStatusAvailable:   true,
	model.SlotStatusUnavailable: true,
	model.SlotStatusCancelled:   true,
}

func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in CreateInput) (*model.Slot, error) {
	if in.EndTime <= in.StartTime {
		return nil, apperrors.BadRequest("endTime must be after startTime", nil)
	}
	date := day(in.Date)
	if date.Before(day(s.now())) {
		return nil, apperrors.BadRequest("date must not be in the past", nil)
	}

	if _, err := s.profiles.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Forbidden("complete onboarding before adding slots")
		}
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}

	overlap, err := s.slots.HasOverlap(ctx, doctorID, date, in.StartTime, in.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot overlap: %w", err)
	}
	if overlap {
		return nil, apperrors.Conflict("slot overlaps an existing slot", nil)
	}

	slot := &model.Slot{
		Base:      model.NewBase(s.now()),
		DoctorID:  doctorID,
		Date:      date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    model.SlotStatusAvailable,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}

	s.auditor.Record(ctx, model.AuditActionSlotCreate, &doctorID, &slot.ID, nil)
	return slot, nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, filter model.SlotFilter) ([]*model.Slot, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.BadRequest("invalid slot status", nil)
	}
	if filter.Date != nil {
		d := day(*filter.Date)
		filter.Date = &d
	}
	slots, err := s.slots.ListByDoctor(ctx, doctorID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	if slots == nil {
		slots = []*model.Slot{}
	}
	return slots, nil
}

func (s *Service) UpdateStatus(ctx context.Context, doctorID, slotID uuid.UUID, to model.SlotStatus) (*model.Slot, error) {
	if !doctorSettable[to] {
		return nil, apperrors.BadRequest("status must be AVAILABLE, UNAVAILABLE or CANCELLED", nil)
	}

	slot, err := s.slots.Get(ctx, slotID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("slot", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	if slot.DoctorID != doctorID {
		return nil, apperrors.Forbidden("forbidden")
	}

	from := slot.Status
	if from == model.SlotStatusHeld || from == model.SlotStatusBooked || !from.CanTransition(to) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot change slot from %s to %s", from, to), nil)
	}
	if err := s.slots.Transition(ctx, slotID, from, to); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("slot changed concurrently", err)
		}
		return nil, fmt.Errorf("failed to update slot: %w", err)
	}

	s.auditor.Record(ctx, model.AuditActionSlotStatus, &doctorID, &slotID, map[string]interface{}{
		"from": from,
		"to":   to,
	})
	slot.Status = to
	return slot, nil
}

// day truncates t to midnight of its UTC calendar date.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
