package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusSent NotificationStatus = "SENT"
	NotificationStatusRead NotificationStatus = "READ"
)

type Notification struct {
	Base
	UserID  uuid.UUID          `json:"userId" db:"user_id"`
	Message string             `json:"message" db:"message"`
	IsRead  bool               `json:"isRead" db:"is_read"`
	Status  NotificationStatus `json:"status" db:"status"`
	ReadAt  *time.Time         `json:"readAt,omitempty" db:"read_at"`
}
