package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
	"github.com/sss135790/quick-clinic/pkg/messaging"
	"github.com/sss135790/quick-clinic/pkg/metrics"
)

// Notifier creates in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, message string) error
}

type Service struct {
	repo      repository.NotificationRepository
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService builds the notification service. publisher may be nil.
func NewService(repo repository.NotificationRepository, publisher messaging.Publisher, m *metrics.Metrics) *Service {
	return &Service{repo: repo, publisher: publisher, metrics: m, now: time.Now}
}

type ListResult struct {
	Items       []*model.Notification `json:"items"`
	UnreadCount int                   `json:"unreadCount"`
}

var errForbidden = apperrors.Forbidden("forbidden")

func (s *Service) Notify(ctx context.Context, userID uuid.UUID, message string) error {
	n := &model.Notification{
		Base:    model.NewBase(s.now()),
		UserID:  userID,
		Message: message,
		Status:  model.NotificationStatusSent,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.publisher != nil {
		result := "ok"
		if err := s.publisher.Publish(ctx, messaging.UserChannel(userID), n); err != nil {
			result = "error"
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to publish notification")
		}
		s.metrics.NotificationPublished(result)
	}
	return nil
}

// List returns the owner's notifications; callerID must match userID.
func (s *Service) List(ctx context.Context, callerID, userID uuid.UUID, unreadOnly bool) (*ListResult, error) {
	if callerID != userID {
		return nil, errForbidden
	}
	items, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	if items == nil {
		items = []*model.Notification{}
	}
	return &ListResult{Items: items, UnreadCount: unread}, nil
}

func (s *Service) MarkRead(ctx context.Context, callerID, userID, notificationID uuid.UUID) (*model.Notification, error) {
	if _, err := s.owned(ctx, callerID, userID, notificationID); err != nil {
		return nil, err
	}
	if err := s.repo.MarkRead(ctx, notificationID, s.now()); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return s.repo.Get(ctx, notificationID)
}

func (s *Service) Delete(ctx context.Context, callerID, userID, notificationID uuid.UUID) error {
	if _, err := s.owned(ctx, callerID, userID, notificationID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, notificationID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// owned loads the notification and checks it belongs to userID. Missing and
// foreign rows are indistinguishable to the caller.
func (s *Service) owned(ctx context.Context, callerID, userID, notificationID uuid.UUID) (*model.Notification, error) {
	if callerID != userID {
		return nil, errForbidden
	}
	n, err := s.repo.Get(ctx, notificationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	if n.UserID != userID {
		return nil, errForbidden
	}
	return n, nil
}
