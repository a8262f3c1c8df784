package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique violations and failed conditional updates.
	ErrConflict = errors.New("record conflict")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		UpdateProfile(ctx context.Context, user *model.User) error
		UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error
		MarkEmailVerified(ctx context.Context, email string) error
		CountByRole(ctx context.Context) (map[model.Role]int, error)
	}

	// ProfileRepository creates role profiles; creation also flags the user as onboarded.
	ProfileRepository interface {
		CreateDoctor(ctx context.Context, doctor *model.Doctor) error
		GetDoctor(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		ListDoctors(ctx context.Context, specialty string) ([]*model.Doctor, error)
		CreatePatient(ctx context.Context, patient *model.Patient) error
		GetPatient(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
	}

	SlotRepository interface {
		Create(ctx context.Context, slot *model.Slot) error
		Get(ctx context.Context, id uuid.UUID) (*model.Slot, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID, filter model.SlotFilter) ([]*model.Slot, error)
		HasOverlap(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end string) (bool, error)
		// Transition moves a slot only if it is currently in from; otherwise ErrConflict.
		Transition(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error
	}

	AppointmentRepository interface {
		// Book claims the slot (AVAILABLE -> slotStatus) and inserts the appointment atomically.
		Book(ctx context.Context, appointment *model.Appointment, slotStatus model.SlotStatus) error
		Get(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error)
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error)
		// Cancel moves the appointment from -> CANCELLED and releases its slot.
		Cancel(ctx context.Context, id uuid.UUID, from model.AppointmentStatus, reason string) error
		// Reschedule retires the old appointment, releases its slot and books next.
		Reschedule(ctx context.Context, oldID uuid.UUID, from model.AppointmentStatus, next *model.Appointment, slotStatus model.SlotStatus) error
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error
		ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*model.Appointment, error)
		HasCompleted(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)
	}

	PaymentRepository interface {
		// Create inserts the payment unless its idempotency key already exists, in which
		// case the stored row is loaded into payment and created is false.
		Create(ctx context.Context, payment *model.Payment) (created bool, err error)
		GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
		GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Payment, error)
		// MarkSuccess settles a CREATED payment: payment -> SUCCESS, linked appointment
		// PENDING -> CONFIRMED, slot HELD -> BOOKED, doctor balance credited.
		// A payment that is not CREATED yields ErrConflict.
		MarkSuccess(ctx context.Context, id uuid.UUID, razorpayPaymentID string) (*model.Settlement, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Payment, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
		CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
		MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	RatingRepository interface {
		// Upsert writes the rating and recomputes the doctor's aggregate in one transaction.
		Upsert(ctx context.Context, rating *model.Rating) (*model.RatingAggregate, error)
		Aggregate(ctx context.Context, doctorID uuid.UUID) (*model.RatingAggregate, error)
		ListComments(ctx context.Context, doctorID uuid.UUID, limit int) ([]*model.Rating, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter model.LogFilter) ([]*model.AuditLog, int, error)
		CreateAccess(ctx context.Context, log *model.AccessLog) error
		ListAccess(ctx context.Context, filter model.LogFilter) ([]*model.AccessLog, int, error)
		// Cleanup removes audit and access rows older than before.
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}

	StatsRepository interface {
		DoctorStats(ctx context.Context, doctorID uuid.UUID, today time.Time) (*model.DoctorStats, error)
		PatientStats(ctx context.Context, patientID uuid.UUID, today time.Time) (*model.PatientStats, error)
		AdminStats(ctx context.Context) (*model.AdminStats, error)
	}
)
