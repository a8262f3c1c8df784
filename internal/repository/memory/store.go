// Package memory holds map-backed repositories with the same conditional
// write semantics as the postgres ones. Tests and local demos use it.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

// Store is the shared state behind every repository returned from it.
type Store struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*model.User
	doctors       map[uuid.UUID]*model.Doctor
	patients      map[uuid.UUID]*model.Patient
	slots         map[uuid.UUID]*model.Slot
	appointments  map[uuid.UUID]*model.Appointment
	payments      map[uuid.UUID]*model.Payment
	notifications map[uuid.UUID]*model.Notification
	ratings       map[ratingKey]*model.Rating
	audit         []*model.AuditLog
	access        []*model.AccessLog
}

type ratingKey struct {
	doctor, user uuid.UUID
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*model.User),
		doctors:       make(map[uuid.UUID]*model.Doctor),
		patients:      make(map[uuid.UUID]*model.Patient),
		slots:         make(map[uuid.UUID]*model.Slot),
		appointments:  make(map[uuid.UUID]*model.Appointment),
		payments:      make(map[uuid.UUID]*model.Payment),
		notifications: make(map[uuid.UUID]*model.Notification),
		ratings:       make(map[ratingKey]*model.Rating),
	}
}

func (s *Store) Users() repository.UserRepository                 { return &users{s} }
func (s *Store) Profiles() repository.ProfileRepository           { return &profiles{s} }
func (s *Store) Slots() repository.SlotRepository                 { return &slots{s} }
func (s *Store) Appointments() repository.AppointmentRepository   { return &appointments{s} }
func (s *Store) Payments() repository.PaymentRepository           { return &payments{s} }
func (s *Store) Notifications() repository.NotificationRepository { return &notifications{s} }
func (s *Store) Ratings() repository.RatingRepository             { return &ratings{s} }
func (s *Store) Audit() repository.AuditRepository                { return &audit{s} }
func (s *Store) Stats() repository.StatsRepository                { return &stats{s} }

// AuditActions returns recorded audit actions in insertion order.
func (s *Store) AuditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.audit))
	for _, l := range s.audit {
		out = append(out, l.Action)
	}
	return out
}

// AccessLogCount reports how many access rows were written.
func (s *Store) AccessLogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.access)
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func lower(s string) string {
	return strings.ToLower(s)
}

func sortByCreatedDesc[T any](items []*T, created func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return created(items[i]).After(created(items[j])) })
}
