package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

type slotRepository struct {
	BaseRepository
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{NewBaseRepository(db)}
}

const slotColumns = `id, doctor_id, slot_date, start_time, end_time, status, created_at, updated_at`

func (r *slotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (` + slotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create slot: %w", translate(err))
	}
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	var slot model.Slot
	if err := get(ctx, r.db, &slot, `SELECT `+slotColumns+` FROM slots WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, filter model.SlotFilter) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE doctor_id = $1`
	args := []interface{}{doctorID}

	if filter.Date != nil {
		args = append(args, *filter.Date)
		query += fmt.Sprintf(" AND slot_date = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY slot_date, start_time"

	var slots []*model.Slot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) HasOverlap(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM slots
			WHERE doctor_id = $1
			  AND slot_date = $2
			  AND status <> 'CANCELLED'
			  AND start_time < $4
			  AND end_time > $3
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, doctorID, date, start, end); err != nil {
		return false, fmt.Errorf("failed to check slot overlap: %w", err)
	}
	return exists, nil
}

func (r *slotRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE slots SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	return expectOne(res, repository.ErrConflict)
}

// claimSlot moves an AVAILABLE slot to status inside tx.
func claimSlot(ctx context.Context, tx *sqlx.Tx, slotID uuid.UUID, status model.SlotStatus) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE slots SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'AVAILABLE'
	`, slotID, status)
	if err != nil {
		return err
	}
	return expectOne(res, repository.ErrConflict)
}

// releaseSlot returns a HELD or BOOKED slot to AVAILABLE inside tx.
func releaseSlot(ctx context.Context, tx *sqlx.Tx, slotID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE slots SET status = 'AVAILABLE', updated_at = NOW()
		WHERE id = $1 AND status IN ('HELD', 'BOOKED')
	`, slotID)
	return err
}
