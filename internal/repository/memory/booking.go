package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

type slots struct{ s *Store }

func (r *slots) Create(_ context.Context, slot *model.Slot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doctors[slot.DoctorID]; !ok {
		return repository.ErrNotFound
	}
	r.s.slots[slot.ID] = copyOf(slot)
	return nil
}

func (r *slots) Get(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot, ok := r.s.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOf(slot), nil
}

func (r *slots) ListByDoctor(_ context.Context, doctorID uuid.UUID, filter model.SlotFilter) ([]*model.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Slot
	for _, slot := range r.s.slots {
		if slot.DoctorID != doctorID {
			continue
		}
		if filter.Date != nil && !sameDay(slot.Date, *filter.Date) {
			continue
		}
		if filter.Status != "" && slot.Status != filter.Status {
			continue
		}
		out = append(out, copyOf(slot))
	}
	sort.Slice(out, func(i, j int) bool {
		if !sameDay(out[i].Date, out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *slots) HasOverlap(_ context.Context, doctorID uuid.UUID, date time.Time, start, end string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, slot := range r.s.slots {
		if slot.DoctorID == doctorID && sameDay(slot.Date, date) &&
			slot.Status != model.SlotStatusCancelled && slot.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *slots) Transition(_ context.Context, id uuid.UUID, from, to model.SlotStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.transitionSlot(id, from, to)
}

func (s *Store) transitionSlot(id uuid.UUID, from, to model.SlotStatus) error {
	slot, ok := s.slots[id]
	if !ok || slot.Status != from {
		return repository.ErrConflict
	}
	slot.Status = to
	slot.UpdatedAt = time.Now()
	return nil
}

func (s *Store) releaseSlot(id uuid.UUID) {
	if slot, ok := s.slots[id]; ok && (slot.Status == model.SlotStatusHeld || slot.Status == model.SlotStatusBooked) {
		slot.Status = model.SlotStatusAvailable
	}
}

type appointments struct{ s *Store }

func (s *Store) insertAppointment(a *model.Appointment) error {
	for _, existing := range s.appointments {
		if existing.SlotID == a.SlotID && existing.Status.Active() {
			return repository.ErrConflict
		}
	}
	s.appointments[a.ID] = copyOf(a)
	return nil
}

func (r *appointments) Book(_ context.Context, a *model.Appointment, slotStatus model.SlotStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot, ok := r.s.slots[a.SlotID]
	if !ok || slot.Status != model.SlotStatusAvailable {
		return repository.ErrConflict
	}
	if err := r.s.insertAppointment(a); err != nil {
		return err
	}
	slot.Status = slotStatus
	return nil
}

func (s *Store) detail(a *model.Appointment) *model.AppointmentDetail {
	d := &model.AppointmentDetail{Appointment: *a}
	if slot, ok := s.slots[a.SlotID]; ok {
		d.SlotDate, d.StartTime, d.EndTime = slot.Date, slot.StartTime, slot.EndTime
	}
	if u, ok := s.users[a.DoctorID]; ok {
		d.DoctorName = u.Name
	}
	if u, ok := s.users[a.PatientID]; ok {
		d.PatientName = u.Name
	}
	return d
}

func (r *appointments) Get(_ context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.s.detail(a), nil
}

func (r *appointments) List(_ context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.AppointmentDetail
	for _, a := range r.s.appointments {
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, r.s.detail(a))
	}
	sortByCreatedDesc(out, func(d *model.AppointmentDetail) time.Time { return d.CreatedAt })
	return out, nil
}

func (s *Store) retire(id uuid.UUID, from, to model.AppointmentStatus, reason string) (*model.Appointment, error) {
	a, ok := s.appointments[id]
	if !ok || a.Status != from {
		return nil, repository.ErrConflict
	}
	a.Status = to
	a.HoldExpiresAt = nil
	if reason != "" {
		a.CancelReason = &reason
	}
	return a, nil
}

func (r *appointments) Cancel(_ context.Context, id uuid.UUID, from model.AppointmentStatus, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, err := r.s.retire(id, from, model.AppointmentStatusCancelled, reason)
	if err != nil {
		return err
	}
	r.s.releaseSlot(a.SlotID)
	return nil
}

func (r *appointments) Reschedule(_ context.Context, oldID uuid.UUID, from model.AppointmentStatus, next *model.Appointment, slotStatus model.SlotStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.appointments[oldID]
	if !ok || old.Status != from {
		return repository.ErrConflict
	}
	slot, ok := r.s.slots[next.SlotID]
	if !ok || slot.Status != model.SlotStatusAvailable {
		return repository.ErrConflict
	}

	if _, err := r.s.retire(oldID, from, model.AppointmentStatusRescheduled, ""); err != nil {
		return err
	}
	r.s.releaseSlot(old.SlotID)
	slot.Status = slotStatus
	r.s.appointments[next.ID] = copyOf(next)

	for _, p := range r.s.payments {
		if p.AppointmentID != nil && *p.AppointmentID == oldID {
			id := next.ID
			p.AppointmentID = &id
		}
	}
	return nil
}

func (r *appointments) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok || a.Status != from {
		return repository.ErrConflict
	}
	a.Status = to
	return nil
}

func (r *appointments) ListExpiredHolds(_ context.Context, now time.Time, limit int) ([]*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.s.appointments {
		if a.Status == model.AppointmentStatusPending && a.HoldExpiresAt != nil && a.HoldExpiresAt.Before(now) {
			out = append(out, copyOf(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HoldExpiresAt.Before(*out[j].HoldExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *appointments) HasCompleted(_ context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.appointments {
		if a.PatientID == patientID && a.DoctorID == doctorID && a.Status == model.AppointmentStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}
