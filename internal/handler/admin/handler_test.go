package admin

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sss135790/quick-clinic/internal/handler/handlertest"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository/memory"
	"github.com/sss135790/quick-clinic/internal/service/audit"
)

func TestAuditLogsAreAdminOnlyAndPaginated(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := audit.NewService(store.Audit())
	srv := handlertest.NewServer(t, NewHandler(svc))

	admin := handlertest.NewUser(model.RoleAdmin, "Root")
	doctor := handlertest.NewUser(model.RoleDoctor, "Meera")

	for i := 0; i < 3; i++ {
		svc.Record(ctx, model.AuditActionLogin, &doctor.ID, nil, nil)
	}
	svc.Record(ctx, model.AuditActionSignup, &doctor.ID, nil, nil)

	w := srv.Do(http.MethodGet, "/api/admin/audit-logs", srv.Token(t, doctor), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.Do(http.MethodGet, "/api/admin/audit-logs?action=user.login&limit=2", srv.Token(t, admin), "")
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data       []model.AuditLog `json:"data"`
		Pagination struct {
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"pagination"`
	}
	handlertest.Decode(t, w, &page)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.Pagination.Limit)
	assert.Equal(t, 3, page.Pagination.Total)

	w = srv.Do(http.MethodGet, "/api/admin/audit-logs?userId="+uuid.NewString(), srv.Token(t, admin), "")
	require.Equal(t, http.StatusOK, w.Code)
	handlertest.Decode(t, w, &page)
	assert.Empty(t, page.Data)

	w = srv.Do(http.MethodGet, "/api/admin/access-logs?limit=500", srv.Token(t, admin), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
