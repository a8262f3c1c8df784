package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is unique per (DoctorID, UserID).
type Rating struct {
	DoctorID    uuid.UUID `json:"doctorId" db:"doctor_id"`
	UserID      uuid.UUID `json:"userId" db:"user_id"`
	PatientName string    `json:"patientName,omitempty" db:"patient_name"`
	Rating      int       `json:"rating" db:"rating"`
	Comment     *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type RatingAggregate struct {
	Average float64 `json:"average" db:"average"`
	Count   int     `json:"count" db:"count"`
}
