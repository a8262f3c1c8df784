package model

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusCreated PaymentStatus = "CREATED"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
)

// Payment tracks one processor order. Amount is in minor units.
type Payment struct {
	Base
	UserID            uuid.UUID     `json:"userId" db:"user_id"`
	AppointmentID     *uuid.UUID    `json:"appointmentId,omitempty" db:"appointment_id"`
	RazorpayOrderID   string        `json:"razorpayOrderId" db:"razorpay_order_id"`
	RazorpayPaymentID *string       `json:"razorpayPaymentId,omitempty" db:"razorpay_payment_id"`
	Amount            int64         `json:"amount" db:"amount"`
	Currency          string        `json:"currency" db:"currency"`
	Status            PaymentStatus `json:"status" db:"status"`
	IdempotencyKey    *string       `json:"-" db:"idempotency_key"`
	Receipt           string        `json:"receipt" db:"receipt"`
}

// Settlement is the outcome of a successful verification.
type Settlement struct {
	Payment     *Payment
	Appointment *Appointment
}
