package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

const appointmentColumns = `id, doctor_id, patient_id, slot_id, status, payment_method, reason,
	cancel_reason, hold_expires_at, rescheduled_from, created_at, updated_at`

const appointmentDetailSelect = `
	SELECT a.id, a.doctor_id, a.patient_id, a.slot_id, a.status, a.payment_method, a.reason,
	       a.cancel_reason, a.hold_expires_at, a.rescheduled_from, a.created_at, a.updated_at,
	       s.slot_date, s.start_time, s.end_time,
	       du.name AS doctor_name, pu.name AS patient_name
	FROM appointments a
	JOIN slots s ON s.id = a.slot_id
	JOIN users du ON du.id = a.doctor_id
	JOIN users pu ON pu.id = a.patient_id
`

func insertAppointment(ctx context.Context, tx *sqlx.Tx, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := tx.ExecContext(ctx, query,
		a.ID,
		a.DoctorID,
		a.PatientID,
		a.SlotID,
		a.Status,
		a.PaymentMethod,
		a.Reason,
		a.CancelReason,
		a.HoldExpiresAt,
		a.RescheduledFrom,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return translate(err)
}

func (r *appointmentRepository) Book(ctx context.Context, appointment *model.Appointment, slotStatus model.SlotStatus) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := claimSlot(ctx, tx, appointment.SlotID, slotStatus); err != nil {
			return err
		}
		return insertAppointment(ctx, tx, appointment)
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	var detail model.AppointmentDetail
	if err := get(ctx, r.db, &detail, appointmentDetailSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error) {
	query := appointmentDetailSelect + ` WHERE 1=1`
	var args []interface{}

	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		query += fmt.Sprintf(" AND a.doctor_id = $%d", len(args))
	}
	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		query += fmt.Sprintf(" AND a.patient_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	query += " ORDER BY s.slot_date DESC, s.start_time DESC"

	var list []*model.AppointmentDetail
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return list, nil
}

// retire moves an appointment out of an active status and returns its slot id.
func retire(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to model.AppointmentStatus, reason *string) (uuid.UUID, error) {
	var slotID uuid.UUID
	err := get(ctx, tx, &slotID, `
		UPDATE appointments
		SET status = $3, cancel_reason = COALESCE($4, cancel_reason), hold_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING slot_id
	`, id, from, to, reason)
	if errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, repository.ErrConflict
	}
	return slotID, err
}

func (r *appointmentRepository) Cancel(ctx context.Context, id uuid.UUID, from model.AppointmentStatus, reason string) error {
	var reasonArg *string
	if reason != "" {
		reasonArg = &reason
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		slotID, err := retire(ctx, tx, id, from, model.AppointmentStatusCancelled, reasonArg)
		if err != nil {
			return err
		}
		return releaseSlot(ctx, tx, slotID)
	})
}

func (r *appointmentRepository) Reschedule(ctx context.Context, oldID uuid.UUID, from model.AppointmentStatus, next *model.Appointment, slotStatus model.SlotStatus) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		oldSlot, err := retire(ctx, tx, oldID, from, model.AppointmentStatusRescheduled, nil)
		if err != nil {
			return err
		}
		if err := releaseSlot(ctx, tx, oldSlot); err != nil {
			return err
		}
		if err := claimSlot(ctx, tx, next.SlotID, slotStatus); err != nil {
			return err
		}
		if err := insertAppointment(ctx, tx, next); err != nil {
			return err
		}
		// payments follow the appointment they paid for
		_, err = tx.ExecContext(ctx,
			`UPDATE payments SET appointment_id = $2, updated_at = NOW() WHERE appointment_id = $1`,
			oldID, next.ID)
		return err
	})
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return expectOne(res, repository.ErrConflict)
}

func (r *appointmentRepository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = 'PENDING' AND hold_expires_at IS NOT NULL AND hold_expires_at < $1
		ORDER BY hold_expires_at
		LIMIT $2
	`
	var list []*model.Appointment
	if err := r.db.SelectContext(ctx, &list, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list expired holds: %w", err)
	}
	return list, nil
}

func (r *appointmentRepository) HasCompleted(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1 AND doctor_id = $2 AND status = 'COMPLETED'
		)
	`, patientID, doctorID)
	if err != nil {
		return false, fmt.Errorf("failed to check completed appointments: %w", err)
	}
	return exists, nil
}
