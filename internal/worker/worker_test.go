package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sss135790/quick-clinic/pkg/metrics"
)

type fakeReleaser struct {
	mu      sync.Mutex
	batches []int
	err     error
	calls   int
}

func (f *fakeReleaser) ReleaseExpiredHolds(_ context.Context, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	if n > limit {
		n = limit
	}
	return n, nil
}

func (f *fakeReleaser) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePurger struct {
	removed int64
	err     error
	days    int
}

func (f *fakePurger) Cleanup(_ context.Context, retentionDays int) (int64, error) {
	f.days = retentionDays
	return f.removed, f.err
}

func TestHoldReleaseRunOnceDrainsFullBatches(t *testing.T) {
	r := &fakeReleaser{batches: []int{defaultHoldBatch, defaultHoldBatch, 3}}
	w := NewHoldReleaseWorker(r, time.Minute, zerolog.Nop())

	total := w.RunOnce(context.Background())

	assert.Equal(t, 2*defaultHoldBatch+3, total)
	assert.Equal(t, 3, r.Calls())
}

func TestHoldReleaseRunOnceStopsOnError(t *testing.T) {
	r := &fakeReleaser{err: errors.New("db down")}
	w := NewHoldReleaseWorker(r, time.Minute, zerolog.Nop())

	assert.Equal(t, 0, w.RunOnce(context.Background()))
	assert.Equal(t, 1, r.Calls())
}

func TestHoldReleaseStartTicksUntilCancelled(t *testing.T) {
	r := &fakeReleaser{}
	w := NewHoldReleaseWorker(r, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestAuditCleanupRunOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "test")
	p := &fakePurger{removed: 7}
	w := NewAuditCleanupWorker(p, 30, time.Hour, m, zerolog.Nop())

	assert.Equal(t, int64(7), w.RunOnce(context.Background()))
	assert.Equal(t, 30, p.days)

	assert.Equal(t, float64(7), testutil.ToFloat64(m.LogsPurged))
}

func TestAuditCleanupRunOnceError(t *testing.T) {
	p := &fakePurger{err: errors.New("boom")}
	w := NewAuditCleanupWorker(p, 30, time.Hour, nil, zerolog.Nop())

	assert.Equal(t, int64(0), w.RunOnce(context.Background()))
}
