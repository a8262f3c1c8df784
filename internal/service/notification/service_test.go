package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sss135790/quick-clinic/internal/repository/memory"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
)

type recordingPublisher struct {
	channels []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, _ interface{}) error {
	p.channels = append(p.channels, channel)
	return p.err
}

func TestNotifyPublishesToUserChannel(t *testing.T) {
	store := memory.NewStore()
	pub := &recordingPublisher{err: errors.New("redis down")}
	svc := NewService(store.Notifications(), pub, nil)
	user := uuid.New()

	require.NoError(t, svc.Notify(context.Background(), user, "Appointment booked"))
	assert.Equal(t, []string{"notifications:" + user.String()}, pub.channels)

	res, err := svc.List(context.Background(), user, user, false)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.UnreadCount)
}

func TestMarkReadAndDeleteOwnership(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Notifications(), nil, nil)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	require.NoError(t, svc.Notify(ctx, owner, "hello"))
	res, err := svc.List(ctx, owner, owner, true)
	require.NoError(t, err)
	id := res.Items[0].ID

	_, err = svc.MarkRead(ctx, stranger, stranger, id)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	_, err = svc.MarkRead(ctx, owner, owner, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	assert.True(t, apperrors.Is(svc.Delete(ctx, stranger, owner, id), apperrors.ErrForbidden))

	stored, err := store.Notifications().Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, stored.IsRead)

	n, err := svc.MarkRead(ctx, owner, owner, id)
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	require.NotNil(t, n.ReadAt)

	res, err = svc.List(ctx, owner, owner, true)
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	require.NoError(t, svc.Delete(ctx, owner, owner, id))
	_, err = store.Notifications().Get(ctx, id)
	assert.Error(t, err)
}
