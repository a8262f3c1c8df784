package rating

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
)

const (
	DefaultCommentLimit = 20
	MaxCommentLimit     = 100
)

var ErrRatingRange = apperrors.BadRequest(fmt.Sprintf("Rating must be between %d and %d", model.MinRating, model.MaxRating), nil)

// Invalidator drops cached aggregates that include a doctor's rating.
type Invalidator interface {
	Invalidate(doctorID uuid.UUID)
}

type Service struct {
	ratings      repository.RatingRepository
	profiles     repository.ProfileRepository
	appointments repository.AppointmentRepository
	invalidator  Invalidator
	auditor      audit.Recorder
	now          func() time.Time
}

func NewService(
	ratings repository.RatingRepository,
	profiles repository.ProfileRepository,
	appointments repository.AppointmentRepository,
	invalidator Invalidator,
	auditor audit.Recorder,
) *Service {
	return &Service{
		ratings:      ratings,
		profiles:     profiles,
		appointments: appointments,
		invalidator:  invalidator,
		auditor:      auditor,
		now:          time.Now,
	}
}

// Rate upserts the patient's rating of a doctor and returns the new aggregate.
func (s *Service) Rate(ctx context.Context, patientID, doctorID uuid.UUID, value int, comment *string) (*model.RatingAggregate, error) {
	if value < model.MinRating || value > model.MaxRating {
		return nil, ErrRatingRange
	}
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	completed, err := s.appointments.HasCompleted(ctx, patientID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check appointments: %w", err)
	}
	if !completed {
		return nil, apperrors.Forbidden("only patients with a completed appointment can rate this doctor")
	}

	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		comment = &trimmed
	}
	now := s.now()
	agg, err := s.ratings.Upsert(ctx, &model.Rating{
		DoctorID:  doctorID,
		UserID:    patientID,
		Rating:    value,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(doctorID)
	}
	s.auditor.Record(ctx, model.AuditActionRating, &patientID, &doctorID, map[string]interface{}{"rating": value})
	return agg, nil
}

func (s *Service) Aggregate(ctx context.Context, doctorID uuid.UUID) (*model.RatingAggregate, error) {
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	agg, err := s.ratings.Aggregate(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return agg, nil
}

func (s *Service) Comments(ctx context.Context, doctorID uuid.UUID, limit int) ([]*model.Rating, error) {
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultCommentLimit
	}
	if limit > MaxCommentLimit {
		limit = MaxCommentLimit
	}
	comments, err := s.ratings.ListComments(ctx, doctorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	if comments == nil {
		comments = []*model.Rating{}
	}
	return comments, nil
}

func (s *Service) requireDoctor(ctx context.Context, doctorID uuid.UUID) error {
	_, err := s.profiles.GetDoctor(ctx, doctorID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("doctor", err)
	}
	if err != nil {
		return fmt.Errorf("failed to load doctor: %w", err)
	}
	return nil
}
