package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

type ratings struct{ s *Store }

func (r *ratings) Upsert(_ context.Context, rating *model.Rating) (*model.RatingAggregate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.doctors[rating.DoctorID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	key := ratingKey{rating.DoctorID, rating.UserID}
	if existing, ok := r.s.ratings[key]; ok {
		existing.Rating = rating.Rating
		existing.Comment = rating.Comment
		existing.UpdatedAt = rating.UpdatedAt
	} else {
		r.s.ratings[key] = copyOf(rating)
	}

	agg := r.s.aggregate(rating.DoctorID)
	d.RatingAverage = agg.Average
	d.RatingCount = agg.Count
	return &agg, nil
}

func (s *Store) aggregate(doctorID uuid.UUID) model.RatingAggregate {
	var agg model.RatingAggregate
	sum := 0
	for k, v := range s.ratings {
		if k.doctor == doctorID {
			sum += v.Rating
			agg.Count++
		}
	}
	if agg.Count > 0 {
		agg.Average = float64(sum) / float64(agg.Count)
	}
	return agg
}

func (r *ratings) Aggregate(_ context.Context, doctorID uuid.UUID) (*model.RatingAggregate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	agg := r.s.aggregate(doctorID)
	return &agg, nil
}

func (r *ratings) ListComments(_ context.Context, doctorID uuid.UUID, limit int) ([]*model.Rating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Rating
	for k, v := range r.s.ratings {
		if k.doctor != doctorID || v.Comment == nil || *v.Comment == "" {
			continue
		}
		c := copyOf(v)
		if u, ok := r.s.users[k.user]; ok {
			c.PatientName = u.Name
		}
		out = append(out, c)
	}
	sortByCreatedDesc(out, func(c *model.Rating) time.Time { return c.UpdatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
