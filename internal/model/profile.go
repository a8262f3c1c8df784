package model

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is the practitioner profile created at onboarding. Money is in minor units.
type Doctor struct {
	UserID          uuid.UUID `json:"userId" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	Specialty       string    `json:"specialty" db:"specialty"`
	Qualifications  string    `json:"qualifications" db:"qualifications"`
	ExperienceYears int       `json:"experienceYears" db:"experience_years"`
	Fees            int64     `json:"fees" db:"fees"`
	Bio             string    `json:"bio" db:"bio"`
	Balance         int64     `json:"-" db:"balance"`
	RatingAverage   float64   `json:"ratingAverage" db:"rating_average"`
	RatingCount     int       `json:"ratingCount" db:"rating_count"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

type Patient struct {
	UserID         uuid.UUID `json:"userId" db:"user_id"`
	DateOfBirth    time.Time `json:"dateOfBirth" db:"date_of_birth"`
	Gender         string    `json:"gender" db:"gender"`
	BloodGroup     string    `json:"bloodGroup" db:"blood_group"`
	MedicalHistory string    `json:"medicalHistory" db:"medical_history"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
