package otp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sss135790/quick-clinic/internal/email"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository/memory"
	"github.com/sss135790/quick-clinic/internal/service/audit"
	apperrors "github.com/sss135790/quick-clinic/pkg/errors"
)

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *captureMailer) SendPaymentReceipt(context.Context, string, email.Receipt) error {
	return nil
}

type fixture struct {
	svc    *Service
	store  *memory.Store
	mailer *captureMailer
	redis  *miniredis.Miniredis
}

func newFixture(t *testing.T, perHour int) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := memory.NewStore()
	require.NoError(t, store.Users().Create(context.Background(), &model.User{
		ID: uuid.New(), Email: "asha@example.com", Name: "Asha", Role: model.RolePatient,
	}))

	mailer := &captureMailer{codes: make(map[string]string)}
	svc := NewService(NewRedisStore(client), store.Users(), mailer, audit.NewService(store.Audit()), nil, perHour)
	return &fixture{svc: svc, store: store, mailer: mailer, redis: mr}
}

func TestSendAndVerify(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	require.NoError(t, f.svc.Send(ctx, "Asha@Example.com"))
	code := f.mailer.codes["asha@example.com"]
	require.Len(t, code, CodeLength)

	raw, err := f.redis.Get("otp:code:asha@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, code, raw)

	require.NoError(t, f.svc.Verify(ctx, "asha@example.com", code))
	user, err := f.store.Users().GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.False(t, f.redis.Exists("otp:code:asha@example.com"))

	delete(f.mailer.codes, "asha@example.com")
	require.NoError(t, f.svc.Send(ctx, "asha@example.com"))
	assert.NotContains(t, f.mailer.codes, "asha@example.com")
	assert.False(t, f.redis.Exists("otp:code:asha@example.com"))
}

func TestSendUnknownEmailLooksLikeSuccess(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	require.NoError(t, f.svc.Send(ctx, "nobody@example.com"))
	assert.Empty(t, f.mailer.codes)
	assert.False(t, f.redis.Exists("otp:code:nobody@example.com"))

	err := f.svc.Send(ctx, "nobody@example.com")
	assert.True(t, apperrors.Is(err, apperrors.ErrTooManyRequests))
}

func TestSendIsRateLimited(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	require.NoError(t, f.svc.Send(ctx, "asha@example.com"))
	require.NoError(t, f.svc.Send(ctx, "asha@example.com"))
	err := f.svc.Send(ctx, "asha@example.com")
	assert.True(t, apperrors.Is(err, apperrors.ErrTooManyRequests))

	f.redis.FastForward(time.Hour + time.Second)
	assert.NoError(t, f.svc.Send(ctx, "asha@example.com"))
}

func TestVerifyBurnsCodeAfterMaxAttempts(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	require.NoError(t, f.svc.Send(ctx, "asha@example.com"))
	code := f.mailer.codes["asha@example.com"]
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < MaxAttempts; i++ {
		err := f.svc.Verify(ctx, "asha@example.com", wrong)
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	}

	err := f.svc.Verify(ctx, "asha@example.com", code)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestVerifyExpiredCode(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	require.NoError(t, f.svc.Send(ctx, "asha@example.com"))
	code := f.mailer.codes["asha@example.com"]
	f.redis.FastForward(CodeTTL + time.Second)

	err := f.svc.Verify(ctx, "asha@example.com", code)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}
