package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

type User struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Email              string    `json:"email" db:"email"`
	PasswordHash       string    `json:"-" db:"password_hash"`
	Name               string    `json:"name" db:"name"`
	Phone              *string   `json:"phone,omitempty" db:"phone"`
	Role               Role      `json:"role" db:"role"`
	AvatarURL          *string   `json:"avatarUrl,omitempty" db:"avatar_url"`
	EmailVerified      bool      `json:"emailVerified" db:"email_verified"`
	OnboardingComplete bool      `json:"onboardingComplete" db:"onboarding_complete"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}
