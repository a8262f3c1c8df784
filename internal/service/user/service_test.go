package user

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
	"github.com/sss135790/quick-clinic/pkg/security"
)

func newUser(t *testing.T, store *memory.Store, role model.Role) *model.User {
	t.Helper()
	u := &model.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: "Test " + string(role), Role: role}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func newTestService(t *testing.T, store *memory.Store) *Service {
	t.Helper()
	enc, err := security.NewAESEncryptor(make([]byte, 32))
	require.NoError(t, err)
	return NewService(store.Users(), store.Profiles(), enc, audit.NewService(store.Audit()))
}

func TestOnboardDoctorOnce(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()
	doc := newUser(t, store, model.RoleDoctor)

	in := DoctorInput{Specialty: "Cardiology", Qualifications: "MBBS, MD", ExperienceYears: 8, Fees: 50000}
	d, err := svc.OnboardDoctor(ctx, doc.ID, in)
	require.NoError(t, err)
	assert.Equal(t, doc.Name, d.Name)

	u, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, u.OnboardingComplete)

	_, err = svc.OnboardDoctor(ctx, doc.ID, in)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	patient := newUser(t, store, model.RolePatient)
	_, err = svc.OnboardDoctor(ctx, patient.ID, in)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	doctors, err := svc.ListDoctors(ctx, "cardiology")
	require.NoError(t, err)
	assert.Len(t, doctors, 1)
}

func TestOnboardPatientEncryptsHistory(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()
	p := newUser(t, store, model.RolePatient)

	_, err := svc.OnboardPatient(ctx, p.ID, PatientInput{
		DateOfBirth:    time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		Gender:         "F",
		BloodGroup:     "O+",
		MedicalHistory: "asthma",
	})
	require.NoError(t, err)

	raw, err := store.Profiles().GetPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "asthma", raw.MedicalHistory)

	decoded, err := svc.Patient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "asthma", decoded.MedicalHistory)
}

func TestAvatarOwnership(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()
	owner := newUser(t, store, model.RolePatient)
	other := newUser(t, store, model.RolePatient)

	err := svc.SetAvatar(ctx, other.ID, owner.ID, "https://cdn.example.com/a.png")
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	require.NoError(t, svc.SetAvatar(ctx, owner.ID, owner.ID, "https://cdn.example.com/a.png"))
	url, err := svc.Avatar(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", url)

	_, err = svc.Avatar(ctx, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateProfile(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()
	u := newUser(t, store, model.RolePatient)

	name, phone := "  Asha K ", "+91 99999 00000"
	updated, err := svc.Update(ctx, u.ID, UpdateInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", updated.Name)

	empty := " "
	_, err = svc.Update(ctx, u.ID, UpdateInput{Name: &empty})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}
