package notification

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sss135790/quick-clinic/internal/handler/handlertest"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository/memory"
	"github.com/sss135790/quick-clinic/internal/service/notification"
)

func TestNotificationLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := notification.NewService(store.Notifications(), nil, nil)
	srv := handlertest.NewServer(t, NewHandler(svc))

	owner := handlertest.NewUser(model.RolePatient, "Ravi")
	other := handlertest.NewUser(model.RolePatient, "Kiran")
	require.NoError(t, svc.Notify(ctx, owner.ID, "Appointment confirmed"))
	require.NoError(t, svc.Notify(ctx, owner.ID, "Payment received"))

	base := "/api/users/" + owner.ID.String() + "/notifications"

	w := srv.Do(http.MethodGet, base, srv.Token(t, other), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.Do(http.MethodGet, base+"?unread=true", srv.Token(t, owner), "")
	require.Equal(t, http.StatusOK, w.Code)
	var list notification.ListResult
	handlertest.Decode(t, w, &list)
	require.Len(t, list.Items, 2)
	assert.Equal(t, 2, list.UnreadCount)

	target := list.Items[0].ID.String()

	w = srv.Do(http.MethodPatch, base+"/"+target, srv.Token(t, other), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.Do(http.MethodPatch, "/api/users/"+other.ID.String()+"/notifications/"+target, srv.Token(t, other), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.Do(http.MethodPatch, base+"/"+target, srv.Token(t, owner), "")
	require.Equal(t, http.StatusOK, w.Code)
	var read model.Notification
	handlertest.Decode(t, w, &read)
	assert.True(t, read.IsRead)
	assert.Equal(t, model.NotificationStatusRead, read.Status)
	assert.NotNil(t, read.ReadAt)

	w = srv.Do(http.MethodGet, base+"?unread=true", srv.Token(t, owner), "")
	handlertest.Decode(t, w, &list)
	assert.Equal(t, 1, list.UnreadCount)

	w = srv.Do(http.MethodDelete, base+"/"+target, srv.Token(t, owner), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.Do(http.MethodDelete, base+"/"+target, srv.Token(t, owner), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
