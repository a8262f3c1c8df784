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

type statsRepository struct {
	BaseRepository
}

func NewStatsRepository(db *sqlx.DB) repository.StatsRepository {
	return &statsRepository{NewBaseRepository(db)}
}

type statusCount struct {
	Status model.AppointmentStatus `db:"status"`
	Count  int                     `db:"count"`
}

func (r *statsRepository) DoctorStats(ctx context.Context, doctorID uuid.UUID, today time.Time) (*model.DoctorStats, error) {
	var counts []statusCount
	if err := r.db.SelectContext(ctx, &counts, `
		SELECT status, COUNT(*) AS count FROM appointments WHERE doctor_id = $1 GROUP BY status
	`, doctorID); err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	stats := &model.DoctorStats{ByStatus: make(map[model.AppointmentStatus]int, len(counts))}
	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
		stats.TotalAppointments += c.Count
	}

	if err := r.db.GetContext(ctx, &stats.DistinctPatients, `
		SELECT COUNT(DISTINCT patient_id) FROM appointments WHERE doctor_id = $1
	`, doctorID); err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}

	if err := r.db.GetContext(ctx, &stats.TodayAppointments, `
		SELECT COUNT(*) FROM appointments a
		JOIN slots s ON s.id = a.slot_id
		WHERE a.doctor_id = $1 AND s.slot_date = $2 AND a.status IN ('PENDING', 'CONFIRMED', 'COMPLETED')
	`, doctorID, today); err != nil {
		return nil, fmt.Errorf("failed to count today's appointments: %w", err)
	}

	if err := r.db.GetContext(ctx, &stats.Rating, aggregateQuery, doctorID); err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return stats, nil
}

func (r *statsRepository) PatientStats(ctx context.Context, patientID uuid.UUID, today time.Time) (*model.PatientStats, error) {
	var stats model.PatientStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) FILTER (WHERE a.status IN ('PENDING', 'CONFIRMED') AND s.slot_date >= $2) AS upcoming,
			COUNT(*) FILTER (WHERE a.status = 'COMPLETED') AS completed,
			COUNT(*) FILTER (WHERE a.status = 'CANCELLED') AS cancelled,
			COUNT(*) FILTER (WHERE a.status <> 'RESCHEDULED') AS total
		FROM appointments a
		JOIN slots s ON s.id = a.slot_id
		WHERE a.patient_id = $1
	`, patientID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to compute patient stats: %w", err)
	}

	if err := r.db.GetContext(ctx, &stats.TotalSpent, `
		SELECT COALESCE(SUM(amount), 0) FROM payments WHERE user_id = $1 AND status = 'SUCCESS'
	`, patientID); err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}
	return &stats, nil
}

func (r *statsRepository) AdminStats(ctx context.Context) (*model.AdminStats, error) {
	users := NewUserRepository(r.db)
	byRole, err := users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	var counts []statusCount
	if err := r.db.SelectContext(ctx, &counts,
		`SELECT status, COUNT(*) AS count FROM appointments GROUP BY status`); err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	stats := &model.AdminStats{
		UsersByRole:          byRole,
		AppointmentsByStatus: make(map[model.AppointmentStatus]int, len(counts)),
	}
	for _, c := range counts {
		stats.AppointmentsByStatus[c.Status] = c.Count
	}

	var payments struct {
		Count int   `db:"count"`
		Sum   int64 `db:"sum"`
	}
	if err := r.db.GetContext(ctx, &payments, `
		SELECT COUNT(*) AS count, COALESCE(SUM(amount), 0) AS sum FROM payments WHERE status = 'SUCCESS'
	`); err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}
	stats.SuccessfulPayments = payments.Count
	stats.SuccessfulPaymentsSum = payments.Sum
	return stats, nil
}
