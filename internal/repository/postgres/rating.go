package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

type ratingRepository struct {
	BaseRepository
}

func NewRatingRepository(db *sqlx.DB) repository.RatingRepository {
	return &ratingRepository{NewBaseRepository(db)}
}

const aggregateQuery = `
	SELECT COALESCE(AVG(rating), 0)::float8 AS average, COUNT(*) AS count
	FROM ratings WHERE doctor_id = $1
`

func (r *ratingRepository) Upsert(ctx context.Context, rating *model.Rating) (*model.RatingAggregate, error) {
	var agg model.RatingAggregate

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ratings (doctor_id, user_id, rating, comment, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (doctor_id, user_id)
			DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
		`, rating.DoctorID, rating.UserID, rating.Rating, rating.Comment, rating.CreatedAt, rating.UpdatedAt); err != nil {
			return err
		}

		if err := tx.GetContext(ctx, &agg, aggregateQuery, rating.DoctorID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE doctors SET rating_average = $2, rating_count = $3, updated_at = NOW()
			WHERE user_id = $1
		`, rating.DoctorID, agg.Average, agg.Count)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}
	return &agg, nil
}

func (r *ratingRepository) Aggregate(ctx context.Context, doctorID uuid.UUID) (*model.RatingAggregate, error) {
	var agg model.RatingAggregate
	if err := r.db.GetContext(ctx, &agg, aggregateQuery, doctorID); err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return &agg, nil
}

func (r *ratingRepository) ListComments(ctx context.Context, doctorID uuid.UUID, limit int) ([]*model.Rating, error) {
	query := `
		SELECT r.doctor_id, r.user_id, u.name AS patient_name, r.rating, r.comment, r.created_at, r.updated_at
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		WHERE r.doctor_id = $1 AND r.comment IS NOT NULL AND r.comment <> ''
		ORDER BY r.updated_at DESC
		LIMIT $2
	`
	var list []*model.Rating
	if err := r.db.SelectContext(ctx, &list, query, doctorID, limit); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return list, nil
}
