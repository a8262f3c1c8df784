package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

// Recorder appends audit entries. Failures are logged, never returned.
type Recorder interface {
	Record(ctx context.Context, action string, userID, targetID *uuid.UUID, metadata map[string]interface{})
}

type Service struct {
	repo repository.AuditRepository
	now  func() time.Time
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Record(ctx context.Context, action string, userID, targetID *uuid.UUID, metadata map[string]interface{}) {
	var raw json.RawMessage
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			log.Error().Err(err).Str("action", action).Msg("failed to encode audit metadata")
		} else {
			raw = b
		}
	}

	entry := &model.AuditLog{
		ID:        uuid.New(),
		Action:    action,
		Metadata:  raw,
		UserID:    userID,
		TargetID:  targetID,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}

func (s *Service) List(ctx context.Context, filter model.LogFilter) ([]*model.AuditLog, int, error) {
	filter.Page = filter.Page.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) ListAccess(ctx context.Context, filter model.LogFilter) ([]*model.AccessLog, int, error) {
	filter.Page = filter.Page.Normalize()
	return s.repo.ListAccess(ctx, filter)
}

// Cleanup removes audit and access rows older than retentionDays.
func (s *Service) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %d days", retentionDays)
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	return s.repo.Cleanup(ctx, cutoff)
}
