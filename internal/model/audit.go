package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	AuditActionSignup              = "user.signup"
	AuditActionLogin               = "user.login"
	AuditActionEmailVerified       = "user.email_verified"
	AuditActionOnboarding          = "user.onboarding"
	AuditActionSlotCreate          = "slot.create"
	AuditActionSlotStatus          = "slot.status"
	AuditActionAppointmentCreate   = "appointment.create"
	AuditActionAppointmentCancel   = "appointment.cancel"
	AuditActionAppointmentResched  = "appointment.reschedule"
	AuditActionAppointmentStatus   = "appointment.status"
	AuditActionAppointmentExpired  = "appointment.hold_expired"
	AuditActionPaymentOrder        = "payment.order"
	AuditActionPaymentVerified     = "payment.verified"
	AuditActionPaymentRejected     = "payment.rejected"
	AuditActionPaymentUnattributed = "payment.unattributed"
	AuditActionRating              = "doctor.rating"
)

// AuditLog is append-only.
type AuditLog struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Action    string          `json:"action" db:"action"`
	Metadata  json.RawMessage `json:"metadata" db:"metadata"`
	UserID    *uuid.UUID      `json:"userId,omitempty" db:"user_id"`
	TargetID  *uuid.UUID      `json:"targetId,omitempty" db:"target_id"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

type AccessLog struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    *uuid.UUID `json:"userId,omitempty" db:"user_id"`
	Method    string     `json:"method" db:"method"`
	Path      string     `json:"path" db:"path"`
	Status    int        `json:"status" db:"status"`
	IPAddress string     `json:"ipAddress" db:"ip_address"`
	UserAgent string     `json:"userAgent" db:"user_agent"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

type LogFilter struct {
	Action string
	UserID *uuid.UUID
	Page
}
