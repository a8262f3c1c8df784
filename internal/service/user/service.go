package user

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
	"github.com/sss135790/quick-clinic/pkg/security"
)

// Service covers the account profile, onboarding and the public doctor directory.
type Service struct {
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	encryptor security.Encryptor
	auditor   audit.Recorder
	now       func() time.Time
}

func NewService(users repository.UserRepository, profiles repository.ProfileRepository, encryptor security.Encryptor, auditor audit.Recorder) *Service {
	if encryptor == nil {
		encryptor = security.NoopEncryptor{}
	}
	return &Service{
		users:     users,
		profiles:  profiles,
		encryptor: encryptor,
		auditor:   auditor,
		now:       time.Now,
	}
}

type UpdateInput struct {
	Name  *string
	Phone *string
}

type DoctorInput struct {
	Specialty       string
	Qualifications  string
	ExperienceYears int
	Fees            int64
	Bio             string
}

type PatientInput struct {
	DateOfBirth    time.Time
	Gender         string
	BloodGroup     string
	MedicalHistory string
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("user", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.BadRequest("name must not be empty", nil)
		}
		user.Name = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		user.Phone = &phone
	}
	user.UpdatedAt = s.now()
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Avatar returns the user's avatar url, empty when none is set.
func (s *Service) Avatar(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.AvatarURL == nil {
		return "", nil
	}
	return *user.AvatarURL, nil
}

func (s *Service) SetAvatar(ctx context.Context, callerID, userID uuid.UUID, avatarURL string) error {
	if callerID != userID {
		return apperrors.Forbidden("forbidden")
	}
	err := s.users.UpdateAvatar(ctx, userID, avatarURL)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("user", err)
	}
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

func (s *Service) OnboardDoctor(ctx context.Context, userID uuid.UUID, in DoctorInput) (*model.Doctor, error) {
	user, err := s.requireRole(ctx, userID, model.RoleDoctor)
	if err != nil {
		return nil, err
	}
	if in.Fees <= 0 {
		return nil, apperrors.BadRequest("fees must be positive", nil)
	}
	if in.ExperienceYears < 0 {
		return nil, apperrors.BadRequest("experienceYears must not be negative", nil)
	}

	now := s.now()
	doctor := &model.Doctor{
		UserID:          user.ID,
		Name:            user.Name,
		Specialty:       strings.TrimSpace(in.Specialty),
		Qualifications:  strings.TrimSpace(in.Qualifications),
		ExperienceYears: in.ExperienceYears,
		Fees:            in.Fees,
		Bio:             in.Bio,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.profiles.CreateDoctor(ctx, doctor); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("profile already exists", err)
		}
		return nil, fmt.Errorf("failed to create doctor profile: %w", err)
	}

	s.auditor.Record(ctx, model.AuditActionOnboarding, &user.ID, nil, map[string]interface{}{"role": model.RoleDoctor})
	return doctor, nil
}

func (s *Service) OnboardPatient(ctx context.Context, userID uuid.UUID, in PatientInput) (*model.Patient, error) {
	user, err := s.requireRole(ctx, userID, model.RolePatient)
	if err != nil {
		return nil, err
	}
	if in.DateOfBirth.After(s.now()) {
		return nil, apperrors.BadRequest("dateOfBirth must be in the past", nil)
	}

	history, err := s.encryptor.EncryptString(in.MedicalHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt medical history: %w", err)
	}

	now := s.now()
	patient := &model.Patient{
		UserID:         user.ID,
		DateOfBirth:    in.DateOfBirth,
		Gender:         in.Gender,
		BloodGroup:     in.BloodGroup,
		MedicalHistory: history,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.profiles.CreatePatient(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("profile already exists", err)
		}
		return nil, fmt.Errorf("failed to create patient profile: %w", err)
	}

	s.auditor.Record(ctx, model.AuditActionOnboarding, &user.ID, nil, map[string]interface{}{"role": model.RolePatient})
	patient.MedicalHistory = in.MedicalHistory
	return patient, nil
}

// Patient returns the profile with the medical history decrypted.
func (s *Service) Patient(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	patient, err := s.profiles.GetPatient(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("patient profile", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient profile: %w", err)
	}
	history, err := s.encryptor.DecryptString(patient.MedicalHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt medical history: %w", err)
	}
	patient.MedicalHistory = history
	return patient, nil
}

func (s *Service) Doctor(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.profiles.GetDoctor(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("doctor", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	return doctor, nil
}

func (s *Service) ListDoctors(ctx context.Context, specialty string) ([]*model.Doctor, error) {
	doctors, err := s.profiles.ListDoctors(ctx, strings.TrimSpace(specialty))
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	if doctors == nil {
		doctors = []*model.Doctor{}
	}
	return doctors, nil
}

func (s *Service) requireRole(ctx context.Context, userID uuid.UUID, role model.Role) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		return nil, apperrors.Forbidden("forbidden")
	}
	return user, nil
}
