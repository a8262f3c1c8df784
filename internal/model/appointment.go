package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending     AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed   AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted   AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled   AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow      AppointmentStatus = "NO_SHOW"
	AppointmentStatusRescheduled AppointmentStatus = "RESCHEDULED"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending: {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
		AppointmentStatusCancelled,
		AppointmentStatusRescheduled,
	},
}

func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active appointments occupy their slot.
func (s AppointmentStatus) Active() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow, AppointmentStatusRescheduled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodCash   PaymentMethod = "CASH"
)

type Appointment struct {
	Base
	DoctorID        uuid.UUID         `json:"doctorId" db:"doctor_id"`
	PatientID       uuid.UUID         `json:"patientId" db:"patient_id"`
	SlotID          uuid.UUID         `json:"slotId" db:"slot_id"`
	Status          AppointmentStatus `json:"status" db:"status"`
	PaymentMethod   PaymentMethod     `json:"paymentMethod" db:"payment_method"`
	Reason          *string           `json:"reason,omitempty" db:"reason"`
	CancelReason    *string           `json:"cancelReason,omitempty" db:"cancel_reason"`
	HoldExpiresAt   *time.Time        `json:"holdExpiresAt,omitempty" db:"hold_expires_at"`
	RescheduledFrom *uuid.UUID        `json:"rescheduledFrom,omitempty" db:"rescheduled_from"`
}

// IsParticipant reports whether userID is the doctor or the patient.
func (a *Appointment) IsParticipant(userID uuid.UUID) bool {
	return a.DoctorID == userID || a.PatientID == userID
}

// AppointmentDetail joins the slot window and participant names for listings.
type AppointmentDetail struct {
	Appointment
	SlotDate    time.Time `json:"slotDate" db:"slot_date"`
	StartTime   string    `json:"startTime" db:"start_time"`
	EndTime     string    `json:"endTime" db:"end_time"`
	DoctorName  string    `json:"doctorName" db:"doctor_name"`
	PatientName string    `json:"patientName" db:"patient_name"`
}

type AppointmentFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    AppointmentStatus
}
