package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

type profileRepository struct {
	BaseRepository
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{NewBaseRepository(db)}
}

const doctorSelect = `
	SELECT d.user_id, u.name, d.specialty, d.qualifications, d.experience_years, d.fees,
	       d.bio, d.balance, d.rating_average, d.rating_count, d.created_at, d.updated_at
	FROM doctors d
	JOIN users u ON u.id = d.user_id
`

func (r *profileRepository) markOnboarded(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET onboarding_complete = TRUE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	return expectOne(res, repository.ErrNotFound)
}

func (r *profileRepository) CreateDoctor(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			user_id, specialty, qualifications, experience_years, fees, bio, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query,
			doctor.UserID,
			doctor.Specialty,
			doctor.Qualifications,
			doctor.ExperienceYears,
			doctor.Fees,
			doctor.Bio,
			doctor.CreatedAt,
			doctor.UpdatedAt,
		); err != nil {
			return translate(err)
		}
		return r.markOnboarded(ctx, tx, doctor.UserID)
	})
	if err != nil {
		return fmt.Errorf("failed to create doctor profile: %w", err)
	}
	return nil
}

func (r *profileRepository) GetDoctor(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := get(ctx, r.db, &doctor, doctorSelect+` WHERE d.user_id = $1`, userID); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *profileRepository) ListDoctors(ctx context.Context, specialty string) ([]*model.Doctor, error) {
	query := doctorSelect
	var args []interface{}
	if specialty != "" {
		query += ` WHERE LOWER(d.specialty) = LOWER($1)`
		args = append(args, specialty)
	}
	query += ` ORDER BY d.rating_average DESC, u.name ASC`

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *profileRepository) CreatePatient(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			user_id, date_of_birth, gender, blood_group, medical_history, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query,
			patient.UserID,
			patient.DateOfBirth,
			patient.Gender,
			patient.BloodGroup,
			patient.MedicalHistory,
			patient.CreatedAt,
			patient.UpdatedAt,
		); err != nil {
			return translate(err)
		}
		return r.markOnboarded(ctx, tx, patient.UserID)
	})
	if err != nil {
		return fmt.Errorf("failed to create patient profile: %w", err)
	}
	return nil
}

func (r *profileRepository) GetPatient(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	query := `
		SELECT user_id, date_of_birth, gender, blood_group, medical_history, created_at, updated_at
		FROM patients WHERE user_id = $1
	`
	if err := get(ctx, r.db, &patient, query, userID); err != nil {
		return nil, err
	}
	return &patient, nil
}
