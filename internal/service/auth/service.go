package auth

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
	"github.com/sss135790/quick-clinic/pkg/auth"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
	"github.com/sss135790/quick-clinic/pkg/security"
)

var ErrInvalidCredentials = apperrors.Unauthorized("invalid email or password")

type Service struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenService
	hasher   security.PasswordHasher
	auditor  audit.Recorder
	now      func() time.Time
}

func NewService(userRepo repository.UserRepository, tokens *auth.TokenService, hasher security.PasswordHasher, auditor audit.Recorder) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
		auditor:  auditor,
		now:      time.Now,
	}
}

type SignupInput struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	if in.Role != model.RoleDoctor && in.Role != model.RolePatient {
		return nil, apperrors.BadRequest("role must be DOCTOR or PATIENT", nil)
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, security.ErrPasswordTooShort) {
		return nil, apperrors.BadRequest("password must be at least 8 characters", err)
	}
	if errors.Is(err, security.ErrPasswordTooLong) {
		return nil, apperrors.BadRequest("password must be at most 72 characters", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditor.Record(ctx, model.AuditActionSignup, &user.ID, nil, map[string]interface{}{"role": user.Role})
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.hasher.Compare("", password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.auditor.Record(ctx, model.AuditActionLogin, &user.ID, nil, nil)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("user", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
