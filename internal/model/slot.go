package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "AVAILABLE"
	SlotStatusHeld        SlotStatus = "HELD"
	SlotStatusBooked      SlotStatus = "BOOKED"
	SlotStatusUnavailable SlotStatus = "UNAVAILABLE"
	SlotStatusCancelled   SlotStatus = "CANCELLED"
)

var slotTransitions = map[SlotStatus][]SlotStatus{
	SlotStatusAvailable:   {SlotStatusHeld, SlotStatusBooked, SlotStatusUnavailable, SlotStatusCancelled},
	SlotStatusHeld:        {SlotStatusAvailable, SlotStatusBooked},
	SlotStatusBooked:      {SlotStatusAvailable},
	SlotStatusUnavailable: {SlotStatusAvailable, SlotStatusCancelled},
}

// CanTransition reports whether a slot may move from s to next.
func (s SlotStatus) CanTransition(next SlotStatus) bool {
	for _, allowed := range slotTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusAvailable, SlotStatusHeld, SlotStatusBooked, SlotStatusUnavailable, SlotStatusCancelled:
		return true
	}
	return false
}

// Slot is a doctor's bookable time window. Times are "HH:MM" on Date.
type Slot struct {
	Base
	DoctorID  uuid.UUID  `json:"doctorId" db:"doctor_id"`
	Date      time.Time  `json:"date" db:"slot_date"`
	StartTime string     `json:"startTime" db:"start_time"`
	EndTime   string     `json:"endTime" db:"end_time"`
	Status    SlotStatus `json:"status" db:"status"`
}

// Overlaps reports whether the half-open windows [start, end) intersect.
func (s *Slot) Overlaps(start, end string) bool {
	return s.StartTime < end && start < s.EndTime
}

type SlotFilter struct {
	Date   *time.Time
	Status SlotStatus
}
