package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository/memory"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
)

func seed(t *testing.T) (*memory.Store, uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	doc := &model.User{ID: uuid.New(), Email: "doc@example.com", Name: "Dr. Rao", Role: model.RoleDoctor}
	pat := &model.User{ID: uuid.New(), Email: "pat@example.com", Name: "Asha", Role: model.RolePatient}
	require.NoError(t, store.Users().Create(ctx, doc))
	require.NoError(t, store.Users().Create(ctx, pat))
	require.NoError(t, store.Profiles().CreateDoctor(ctx, &model.Doctor{UserID: doc.ID, Fees: 50000}))
	return store, doc.ID, pat.ID
}

func book(t *testing.T, store *memory.Store, doctorID, patientID uuid.UUID, date time.Time, start string) *model.Appointment {
	t.Helper()
	ctx := context.Background()
	slot := &model.Slot{Base: model.NewBase(time.Now()), DoctorID: doctorID, Date: date, StartTime: start, EndTime: start[:3] + "30", Status: model.SlotStatusAvailable}
	require.NoError(t, store.Slots().Create(ctx, slot))
	a := &model.Appointment{Base: model.NewBase(time.Now()), DoctorID: doctorID, PatientID: patientID, SlotID: slot.ID, Status: model.AppointmentStatusConfirmed, PaymentMethod: model.PaymentMethodCash}
	require.NoError(t, store.Appointments().Book(ctx, a, model.SlotStatusBooked))
	return a
}

func TestDoctorStatsAreCached(t *testing.T) {
	store, doctorID, patientID := seed(t)
	svc := NewService(store.Stats(), store.Profiles(), "INR", time.Minute)
	ctx := context.Background()
	now := today(time.Now(), time.UTC)

	book(t, store, doctorID, patientID, now, "10:00")

	st, err := svc.Doctor(ctx, doctorID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalAppointments)
	assert.Equal(t, 1, st.TodayAppointments)
	assert.Equal(t, 1, st.DistinctPatients)

	book(t, store, doctorID, patientID, now.AddDate(0, 0, 1), "11:00")
	cached, err := svc.Doctor(ctx, doctorID)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.TotalAppointments)

	svc.Invalidate(doctorID)
	fresh, err := svc.Doctor(ctx, doctorID)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalAppointments)
	assert.Equal(t, 2, fresh.ByStatus[model.AppointmentStatusConfirmed])
}

func TestPatientAndAdminStats(t *testing.T) {
	store, doctorID, patientID := seed(t)
	svc := NewService(store.Stats(), store.Profiles(), "INR", 0)
	ctx := context.Background()

	a := book(t, store, doctorID, patientID, today(time.Now(), time.UTC).AddDate(0, 0, 2), "09:00")
	b := book(t, store, doctorID, patientID, today(time.Now(), time.UTC).AddDate(0, 0, 3), "09:00")
	require.NoError(t, store.Appointments().Cancel(ctx, b.ID, model.AppointmentStatusConfirmed, ""))
	require.NoError(t, store.Appointments().UpdateStatus(ctx, a.ID, model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted))

	st, err := svc.Patient(ctx, patientID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Upcoming)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 1, st.Cancelled)
	assert.Equal(t, 2, st.Total)

	admin, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, admin.UsersByRole[model.RoleDoctor])
	assert.Equal(t, 1, admin.AppointmentsByStatus[model.AppointmentStatusCompleted])
}

func TestBalance(t *testing.T) {
	store, doctorID, _ := seed(t)
	svc := NewService(store.Stats(), store.Profiles(), "INR", 0)

	b, err := svc.Balance(context.Background(), doctorID)
	require.NoError(t, err)
	assert.Equal(t, &Balance{Balance: 0, Currency: "INR"}, b)

	_, err = svc.Balance(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestTodayFollowsLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on the 1st is already the 2nd in the clinic zone
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), today(now, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), today(now, ist))
}
