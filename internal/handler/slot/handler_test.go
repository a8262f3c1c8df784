package slot

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sss135790/quick-clinic/internal/handler/handlertest"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository/memory"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	"github.com/sss135790/quick-clinic/internal/service/slot"
)

func setup(t *testing.T) (*handlertest.Server, *model.User, *model.User) {
	ctx := context.Background()
	store := memory.NewStore()

	doctor := handlertest.NewUser(model.RoleDoctor, "Meera")
	require.NoError(t, store.Users().Create(ctx, doctor))
	require.NoError(t, store.Profiles().CreateDoctor(ctx, &model.Doctor{UserID: doctor.ID, Name: doctor.Name, Fees: 50000}))
	other := handlertest.NewUser(model.RoleDoctor, "Arjun")
	require.NoError(t, store.Users().Create(ctx, other))

	svc := slot.NewService(store.Slots(), store.Profiles(), audit.NewService(store.Audit()))
	return handlertest.NewServer(t, NewHandler(svc)), doctor, other
}

func TestCreateAndListSlots(t *testing.T) {
	srv, doctor, _ := setup(t)
	token := srv.Token(t, doctor)
	date := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")

	w := srv.Do(http.MethodPost, "/api/doctor/slots", token, `{"date":"`+date+`","startTime":"10:00","endTime":"10:30"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = srv.Do(http.MethodPost, "/api/doctor/slots", token, `{"date":"`+date+`","startTime":"10:15","endTime":"10:45"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.Do(http.MethodPost, "/api/doctor/slots", token, `{"date":"`+date+`","startTime":"11:00","endTime":"10:45"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.Do(http.MethodPost, "/api/doctor/slots", token, `{"date":"`+date+`","startTime":"25:00","endTime":"26:00"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.Do(http.MethodGet, "/api/doctors/"+doctor.ID.String()+"/slots?date="+date+"&status=AVAILABLE", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var slots []model.Slot
	handlertest.Decode(t, w, &slots)
	require.Len(t, slots, 1)
	assert.Equal(t, "10:00", slots[0].StartTime)

	w = srv.Do(http.MethodGet, "/api/doctors/"+doctor.ID.String()+"/slots?status=SOMETHING", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRequiresProfile(t *testing.T) {
	srv, _, other := setup(t)
	date := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	w := srv.Do(http.MethodPost, "/api/doctor/slots", srv.Token(t, other), `{"date":"`+date+`","startTime":"09:00","endTime":"09:30"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateSlotStatus(t *testing.T) {
	srv, doctor, other := setup(t)
	date := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	w := srv.Do(http.MethodPost, "/api/doctor/slots", srv.Token(t, doctor), `{"date":"`+date+`","startTime":"09:00","endTime":"09:30"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Slot
	handlertest.Decode(t, w, &created)
	path := "/api/doctor/slots/" + created.ID.String()

	w = srv.Do(http.MethodPatch, path, srv.Token(t, other), `{"status":"UNAVAILABLE"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.Do(http.MethodPatch, path, srv.Token(t, doctor), `{"status":"BOOKED"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.Do(http.MethodPatch, path, srv.Token(t, doctor), `{"status":"CANCELLED"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.Do(http.MethodPatch, path, srv.Token(t, doctor), `{"status":"AVAILABLE"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}
