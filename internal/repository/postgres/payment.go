package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

type paymentRepository struct {
	BaseRepository
}

func NewPaymentRepository(db *sqlx.DB) repository.PaymentRepository {
	return &paymentRepository{NewBaseRepository(db)}
}

const paymentColumns = `id, user_id, appointment_id, razorpay_order_id, razorpay_payment_id, amount,
	currency, status, idempotency_key, receipt, created_at, updated_at`

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) (bool, error) {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (idempotency_key) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.UserID,
		payment.AppointmentID,
		payment.RazorpayOrderID,
		payment.RazorpayPaymentID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.IdempotencyKey,
		payment.Receipt,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create payment: %w", translate(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 || payment.IdempotencyKey == nil {
		return n == 1, nil
	}

	// a concurrent request with the same key won the insert
	existing, err := r.GetByIdempotencyKey(ctx, payment.UserID, *payment.IdempotencyKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// the key belongs to another user
			return false, repository.ErrConflict
		}
		return false, err
	}
	*payment = *existing
	return false, nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	var payment model.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE razorpay_order_id = $1`
	if err := get(ctx, r.db, &payment, query, orderID); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Payment, error) {
	var payment model.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1 AND user_id = $2`
	if err := get(ctx, r.db, &payment, query, key, userID); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) MarkSuccess(ctx context.Context, id uuid.UUID, razorpayPaymentID string) (*model.Settlement, error) {
	settlement := &model.Settlement{}

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var payment model.Payment
		err := get(ctx, tx, &payment, `
			UPDATE payments
			SET status = 'SUCCESS', razorpay_payment_id = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'CREATED'
			RETURNING `+paymentColumns, id, razorpayPaymentID)
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrConflict
		}
		if err != nil {
			return err
		}
		settlement.Payment = &payment

		if payment.AppointmentID == nil {
			return nil
		}

		var appointment model.Appointment
		err = get(ctx, tx, &appointment, `
			UPDATE appointments
			SET status = 'CONFIRMED', hold_expires_at = NULL, updated_at = NOW()
			WHERE id = $1 AND status = 'PENDING'
			RETURNING `+appointmentColumns, *payment.AppointmentID)
		if errors.Is(err, repository.ErrNotFound) {
			// the hold already lapsed; the payment stays recorded for reconciliation
			return nil
		}
		if err != nil {
			return err
		}
		settlement.Appointment = &appointment

		if _, err := tx.ExecContext(ctx, `
			UPDATE slots SET status = 'BOOKED', updated_at = NOW()
			WHERE id = $1 AND status = 'HELD'
		`, appointment.SlotID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE doctors SET balance = balance + $2, updated_at = NOW()
			WHERE user_id = $1
		`, appointment.DoctorID, payment.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`
	var payments []*model.Payment
	if err := r.db.SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
