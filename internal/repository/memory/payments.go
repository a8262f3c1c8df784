package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

type payments struct{ s *Store }

func (r *payments) Create(_ context.Context, payment *model.Payment) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.RazorpayOrderID == payment.RazorpayOrderID {
			return false, repository.ErrConflict
		}
		if payment.IdempotencyKey != nil && p.IdempotencyKey != nil && *p.IdempotencyKey == *payment.IdempotencyKey {
			if p.UserID != payment.UserID {
				return false, repository.ErrConflict
			}
			*payment = *copyOf(p)
			return false, nil
		}
	}
	r.s.payments[payment.ID] = copyOf(payment)
	return true, nil
}

func (r *payments) GetByOrderID(_ context.Context, orderID string) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.RazorpayOrderID == orderID {
			return copyOf(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *payments) GetByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.UserID == userID && p.IdempotencyKey != nil && *p.IdempotencyKey == key {
			return copyOf(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *payments) MarkSuccess(_ context.Context, id uuid.UUID, razorpayPaymentID string) (*model.Settlement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[id]
	if !ok || p.Status != model.PaymentStatusCreated {
		return nil, repository.ErrConflict
	}
	now := time.Now()
	p.Status = model.PaymentStatusSuccess
	p.RazorpayPaymentID = &razorpayPaymentID
	p.UpdatedAt = now

	settlement := &model.Settlement{Payment: copyOf(p)}
	if p.AppointmentID == nil {
		return settlement, nil
	}

	a, ok := r.s.appointments[*p.AppointmentID]
	if !ok || a.Status != model.AppointmentStatusPending {
		return settlement, nil
	}
	a.Status = model.AppointmentStatusConfirmed
	a.HoldExpiresAt = nil
	a.UpdatedAt = now
	settlement.Appointment = copyOf(a)

	if slot, ok := r.s.slots[a.SlotID]; ok && slot.Status == model.SlotStatusHeld {
		slot.Status = model.SlotStatusBooked
	}
	if d, ok := r.s.doctors[a.DoctorID]; ok {
		d.Balance += p.Amount
	}
	return settlement, nil
}

func (r *payments) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.s.payments {
		if p.UserID == userID {
			out = append(out, copyOf(p))
		}
	}
	sortByCreatedDesc(out, func(p *model.Payment) time.Time { return p.CreatedAt })
	return out, nil
}

// DoctorBalance exposes the credited balance, which is never serialized.
func (s *Store) DoctorBalance(doctorID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.doctors[doctorID]; ok {
		return d.Balance
	}
	return 0
}

type notifications struct{ s *Store }

func (r *notifications) Create(_ context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications[n.ID] = copyOf(n)
	return nil
}

func (r *notifications) Get(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOf(n), nil
}

func (r *notifications) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, copyOf(n))
	}
	sortByCreatedDesc(out, func(n *model.Notification) time.Time { return n.CreatedAt })
	return out, nil
}

func (r *notifications) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notifications) MarkRead(_ context.Context, id uuid.UUID, readAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.IsRead = true
	n.Status = model.NotificationStatusRead
	if n.ReadAt == nil {
		n.ReadAt = &readAt
	}
	return nil
}

func (r *notifications) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.notifications, id)
	return nil
}
