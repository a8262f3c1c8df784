package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sss135790/quick-clinic/pkg/metrics"
)

// AuditPurger deletes audit and access rows past their retention.
type AuditPurger interface {
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

type AuditCleanupWorker struct {
	purger        AuditPurger
	retentionDays int
	interval      time.Duration
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

func NewAuditCleanupWorker(purger AuditPurger, retentionDays int, interval time.Duration, m *metrics.Metrics, logger zerolog.Logger) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		purger:        purger,
		retentionDays: retentionDays,
		interval:      interval,
		metrics:       m,
		logger:        logger.With().Str("worker", "audit_cleanup").Logger(),
	}
}

// Start purges once immediately, then on every tick until ctx is done.
func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Int("retention_days", w.retentionDays).Dur("interval", w.interval).Msg("worker started")
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker shutting down")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single purge and returns the number of rows removed.
func (w *AuditCleanupWorker) RunOnce(ctx context.Context) int64 {
	n, err := w.purger.Cleanup(ctx, w.retentionDays)
	if err != nil {
		w.logger.Error().Err(err).Msg("audit cleanup failed")
		return 0
	}
	w.metrics.Purged(n)
	if n > 0 {
		w.logger.Info().Int64("removed", n).Msg("purged expired audit rows")
	}
	return n
}
