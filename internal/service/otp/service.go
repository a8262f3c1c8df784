package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sss135790/quick-clinic/internal/email"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
	"github.com/sss135790/quick-clinic/pkg/metrics"
)

const (
	CodeLength  = 6
	CodeTTL     = 10 * time.Minute
	MaxAttempts = 5
	sendWindow  = time.Hour
)

var errInvalidCode = apperrors.BadRequest("invalid or expired otp", nil)

type Service struct {
	store      Store
	users      repository.UserRepository
	mailer     email.Service
	auditor    audit.Recorder
	metrics    *metrics.Metrics
	maxPerHour int
}

func NewService(store Store, users repository.UserRepository, mailer email.Service, auditor audit.Recorder, m *metrics.Metrics, maxPerHour int) *Service {
	return &Service{
		store:      store,
		users:      users,
		mailer:     mailer,
		auditor:    auditor,
		metrics:    m,
		maxPerHour: maxPerHour,
	}
}

// Send mails a fresh code to address. Addresses with no account, or whose
// email is already verified, get the same success result without a mail so
// the endpoint does not reveal which emails are registered.
func (s *Service) Send(ctx context.Context, address string) error {
	address = strings.ToLower(strings.TrimSpace(address))
	sends, err := s.store.IncrSends(ctx, address, sendWindow)
	if err != nil {
		return err
	}
	if s.maxPerHour > 0 && sends > int64(s.maxPerHour) {
		return apperrors.TooManyRequests("too many otp requests, try again later")
	}

	user, err := s.users.GetByEmail(ctx, address)
	if errors.Is(err, repository.ErrNotFound) {
		log.Debug().Msg("otp send skipped: no account")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.EmailVerified {
		log.Debug().Str("user_id", user.ID.String()).Msg("otp send skipped: already verified")
		return nil
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	if err := s.store.Save(ctx, address, hashCode(code), CodeTTL); err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, address, code, CodeTTL); err != nil {
		return apperrors.Unavailable("failed to send otp email", err)
	}

	s.metrics.OTPIssued()
	return nil
}

func (s *Service) Verify(ctx context.Context, address, code string) error {
	address = strings.ToLower(strings.TrimSpace(address))
	stored, err := s.store.Load(ctx, address)
	if errors.Is(err, ErrNoCode) {
		s.metrics.OTPVerification("expired")
		return errInvalidCode
	}
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(hashCode(code))) != 1 {
		attempts, err := s.store.IncrAttempts(ctx, address)
		if err != nil {
			return err
		}
		if attempts >= MaxAttempts {
			if err := s.store.Delete(ctx, address); err != nil {
				return err
			}
		}
		s.metrics.OTPVerification("mismatch")
		return errInvalidCode
	}

	if err := s.users.MarkEmailVerified(ctx, address); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if err := s.store.Delete(ctx, address); err != nil {
		return err
	}

	if user, err := s.users.GetByEmail(ctx, address); err == nil {
		s.auditor.Record(ctx, model.AuditActionEmailVerified, &user.ID, nil, nil)
	}
	s.metrics.OTPVerification("ok")
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
