package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

type users struct{ s *Store }

func (r *users) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == lower(user.Email) {
			return repository.ErrConflict
		}
	}
	c := copyOf(user)
	c.Email = lower(user.Email)
	r.s.users[user.ID] = c
	return nil
}

func (r *users) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOf(u), nil
}

func (r *users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == lower(email) {
			return copyOf(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *users) UpdateProfile(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Name = user.Name
	u.Phone = user.Phone
	return nil
}

func (r *users) UpdateAvatar(_ context.Context, id uuid.UUID, avatarURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.AvatarURL = &avatarURL
	return nil
}

func (r *users) MarkEmailVerified(_ context.Context, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == lower(email) {
			u.EmailVerified = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *users) CountByRole(_ context.Context) (map[model.Role]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[model.Role]int)
	for _, u := range r.s.users {
		counts[u.Role]++
	}
	return counts, nil
}

type profiles struct{ s *Store }

func (r *profiles) CreateDoctor(_ context.Context, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[doctor.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, exists := r.s.doctors[doctor.UserID]; exists {
		return repository.ErrConflict
	}
	c := copyOf(doctor)
	c.Name = u.Name
	r.s.doctors[doctor.UserID] = c
	u.OnboardingComplete = true
	return nil
}

func (r *profiles) GetDoctor(_ context.Context, userID uuid.UUID) (*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOf(d), nil
}

func (r *profiles) ListDoctors(_ context.Context, specialty string) ([]*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Doctor
	for _, d := range r.s.doctors {
		if specialty == "" || lower(d.Specialty) == lower(specialty) {
			out = append(out, copyOf(d))
		}
	}
	return out, nil
}

func (r *profiles) CreatePatient(_ context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[patient.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, exists := r.s.patients[patient.UserID]; exists {
		return repository.ErrConflict
	}
	r.s.patients[patient.UserID] = copyOf(patient)
	u.OnboardingComplete = true
	return nil
}

func (r *profiles) GetPatient(_ context.Context, userID uuid.UUID) (*model.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOf(p), nil
}
