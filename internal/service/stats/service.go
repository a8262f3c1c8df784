package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
)

const DefaultTTL = time.Minute

type Service struct {
	stats    repository.StatsRepository
	profiles repository.ProfileRepository
	currency string
	cache    *cache.Cache
	loc      *time.Location
	now      func() time.Time
}

func NewService(stats repository.StatsRepository, profiles repository.ProfileRepository, currency string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		stats:    stats,
		profiles: profiles,
		currency: currency,
		cache:    cache.New(ttl, 2*ttl),
		loc:      time.UTC,
		now:      time.Now,
	}
}

// WithLocation sets the zone that decides which calendar day is today.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

type Balance struct {
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

func (s *Service) Doctor(ctx context.Context, doctorID uuid.UUID) (*model.DoctorStats, error) {
	key := doctorID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.DoctorStats), nil
	}

	st, err := s.stats.DoctorStats(ctx, doctorID, today(s.now(), s.loc))
	if err != nil {
		return nil, fmt.Errorf("failed to compute doctor stats: %w", err)
	}
	s.cache.SetDefault(key, st)
	return st, nil
}

// Invalidate drops the cached dashboard for a doctor.
func (s *Service) Invalidate(doctorID uuid.UUID) {
	s.cache.Delete(doctorID.String())
}

func (s *Service) Balance(ctx context.Context, doctorID uuid.UUID) (*Balance, error) {
	doctor, err := s.profiles.GetDoctor(ctx, doctorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("doctor", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	return &Balance{Balance: doctor.Balance, Currency: s.currency}, nil
}

func (s *Service) Patient(ctx context.Context, patientID uuid.UUID) (*model.PatientStats, error) {
	st, err := s.stats.PatientStats(ctx, patientID, today(s.now(), s.loc))
	if err != nil {
		return nil, fmt.Errorf("failed to compute patient stats: %w", err)
	}
	return st, nil
}

func (s *Service) Admin(ctx context.Context) (*model.AdminStats, error) {
	st, err := s.stats.AdminStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute admin stats: %w", err)
	}
	return st, nil
}

// today returns the local calendar date as a UTC midnight, the form slot
// dates are stored in.
func today(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
