package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
)

type audit struct{ s *Store }

func (r *audit) Create(_ context.Context, log *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, copyOf(log))
	return nil
}

func (r *audit) List(_ context.Context, filter model.LogFilter) ([]*model.AuditLog, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []*model.AuditLog
	for _, l := range r.s.audit {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if !sameUser(filter.UserID, l.UserID) {
			continue
		}
		matched = append(matched, copyOf(l))
	}
	sortByCreatedDesc(matched, func(l *model.AuditLog) time.Time { return l.CreatedAt })
	return paginate(matched, filter.Page), len(matched), nil
}

func (r *audit) CreateAccess(_ context.Context, log *model.AccessLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.access = append(r.s.access, copyOf(log))
	return nil
}

func (r *audit) ListAccess(_ context.Context, filter model.LogFilter) ([]*model.AccessLog, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []*model.AccessLog
	for _, l := range r.s.access {
		if sameUser(filter.UserID, l.UserID) {
			matched = append(matched, copyOf(l))
		}
	}
	sortByCreatedDesc(matched, func(l *model.AccessLog) time.Time { return l.CreatedAt })
	return paginate(matched, filter.Page), len(matched), nil
}

func (r *audit) Cleanup(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var removed int64

	keptAudit := r.s.audit[:0]
	for _, l := range r.s.audit {
		if l.CreatedAt.Before(before) {
			removed++
			continue
		}
		keptAudit = append(keptAudit, l)
	}
	r.s.audit = keptAudit

	keptAccess := r.s.access[:0]
	for _, l := range r.s.access {
		if l.CreatedAt.Before(before) {
			removed++
			continue
		}
		keptAccess = append(keptAccess, l)
	}
	r.s.access = keptAccess
	return removed, nil
}

func sameUser(filter, actual *uuid.UUID) bool {
	if filter == nil {
		return true
	}
	return actual != nil && *actual == *filter
}

func paginate[T any](items []*T, page model.Page) []*T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return []*T{}
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}

type stats struct{ s *Store }

func (r *stats) DoctorStats(_ context.Context, doctorID uuid.UUID, today time.Time) (*model.DoctorStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := &model.DoctorStats{ByStatus: make(map[model.AppointmentStatus]int)}
	patients := make(map[uuid.UUID]struct{})
	for _, a := range r.s.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		out.ByStatus[a.Status]++
		out.TotalAppointments++
		patients[a.PatientID] = struct{}{}
		if slot, ok := r.s.slots[a.SlotID]; ok && sameDay(slot.Date, today) &&
			(a.Status.Active() || a.Status == model.AppointmentStatusCompleted) {
			out.TodayAppointments++
		}
	}
	out.DistinctPatients = len(patients)
	out.Rating = r.s.aggregate(doctorID)
	return out, nil
}

func (r *stats) PatientStats(_ context.Context, patientID uuid.UUID, today time.Time) (*model.PatientStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := &model.PatientStats{}
	for _, a := range r.s.appointments {
		if a.PatientID != patientID {
			continue
		}
		switch a.Status {
		case model.AppointmentStatusPending, model.AppointmentStatusConfirmed:
			if slot, ok := r.s.slots[a.SlotID]; ok && !slot.Date.Before(truncateDay(today)) {
				out.Upcoming++
			}
		case model.AppointmentStatusCompleted:
			out.Completed++
		case model.AppointmentStatusCancelled:
			out.Cancelled++
		}
		if a.Status != model.AppointmentStatusRescheduled {
			out.Total++
		}
	}
	for _, p := range r.s.payments {
		if p.UserID == patientID && p.Status == model.PaymentStatusSuccess {
			out.TotalSpent += p.Amount
		}
	}
	return out, nil
}

func (r *stats) AdminStats(_ context.Context) (*model.AdminStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := &model.AdminStats{
		UsersByRole:          make(map[model.Role]int),
		AppointmentsByStatus: make(map[model.AppointmentStatus]int),
	}
	for _, u := range r.s.users {
		out.UsersByRole[u.Role]++
	}
	for _, a := range r.s.appointments {
		out.AppointmentsByStatus[a.Status]++
	}
	for _, p := range r.s.payments {
		if p.Status == model.PaymentStatusSuccess {
			out.SuccessfulPayments++
			out.SuccessfulPaymentsSum += p.Amount
		}
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
