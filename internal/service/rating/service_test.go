package rating

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository/memory"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
)

type spyInvalidator struct {
	ids []uuid.UUID
}

func (s *spyInvalidator) Invalidate(id uuid.UUID) { s.ids = append(s.ids, id) }

func setup(t *testing.T, completed bool) (*Service, *spyInvalidator, *memory.Store, uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	doc := &model.User{ID: uuid.New(), Email: "doc@example.com", Name: "Dr. Rao", Role: model.RoleDoctor}
	pat := &model.User{ID: uuid.New(), Email: "pat@example.com", Name: "Asha", Role: model.RolePatient}
	require.NoError(t, store.Users().Create(ctx, doc))
	require.NoError(t, store.Users().Create(ctx, pat))
	require.NoError(t, store.Profiles().CreateDoctor(ctx, &model.Doctor{UserID: doc.ID, Fees: 50000}))

	slot := &model.Slot{Base: model.NewBase(time.Now()), DoctorID: doc.ID, Date: time.Now().UTC(), StartTime: "09:00", EndTime: "09:30", Status: model.SlotStatusAvailable}
	require.NoError(t, store.Slots().Create(ctx, slot))
	appt := &model.Appointment{Base: model.NewBase(time.Now()), DoctorID: doc.ID, PatientID: pat.ID, SlotID: slot.ID, Status: model.AppointmentStatusConfirmed, PaymentMethod: model.PaymentMethodCash}
	require.NoError(t, store.Appointments().Book(ctx, appt, model.SlotStatusBooked))
	if completed {
		require.NoError(t, store.Appointments().UpdateStatus(ctx, appt.ID, model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted))
	}

	spy := &spyInvalidator{}
	svc := NewService(store.Ratings(), store.Profiles(), store.Appointments(), spy, audit.NewService(store.Audit()))
	return svc, spy, store, doc.ID, pat.ID
}

func TestRateRange(t *testing.T) {
	svc, _, _, doctorID, patientID := setup(t, true)

	_, err := svc.Rate(context.Background(), patientID, doctorID, 6, nil)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "Rating must be between 1 and 5", appErr.Message)

	_, err = svc.Rate(context.Background(), patientID, doctorID, 0, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestRateIsIdempotentPerPatient(t *testing.T) {
	svc, spy, _, doctorID, patientID := setup(t, true)
	ctx := context.Background()

	agg, err := svc.Rate(ctx, patientID, doctorID, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, &model.RatingAggregate{Average: 4.0, Count: 1}, agg)

	agg, err = svc.Rate(ctx, patientID, doctorID, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, &model.RatingAggregate{Average: 4.0, Count: 1}, agg)
	assert.Equal(t, []uuid.UUID{doctorID, doctorID}, spy.ids)

	got, err := svc.Aggregate(ctx, doctorID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
}

func TestRateRequiresCompletedAppointment(t *testing.T) {
	svc, _, _, doctorID, patientID := setup(t, false)

	_, err := svc.Rate(context.Background(), patientID, doctorID, 5, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = svc.Rate(context.Background(), patientID, uuid.New(), 5, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestComments(t *testing.T) {
	svc, _, _, doctorID, patientID := setup(t, true)
	ctx := context.Background()

	blank := "   "
	_, err := svc.Rate(ctx, patientID, doctorID, 3, &blank)
	require.NoError(t, err)
	comments, err := svc.Comments(ctx, doctorID, 0)
	require.NoError(t, err)
	assert.Empty(t, comments)

	text := "Very thorough"
	_, err = svc.Rate(ctx, patientID, doctorID, 5, &text)
	require.NoError(t, err)
	comments, err = svc.Comments(ctx, doctorID, 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Very thorough", *comments[0].Comment)
	assert.Equal(t, "Asha", comments[0].PatientName)
}
