package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const defaultHoldBatch = 100

// HoldReleaser cancels PENDING appointments whose payment window lapsed.
type HoldReleaser interface {
	ReleaseExpiredHolds(ctx context.Context, limit int) (int, error)
}

type HoldReleaseWorker struct {
	releaser  HoldReleaser
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
}

func NewHoldReleaseWorker(releaser HoldReleaser, interval time.Duration, logger zerolog.Logger) *HoldReleaseWorker {
	return &HoldReleaseWorker{
		releaser:  releaser,
		interval:  interval,
		batchSize: defaultHoldBatch,
		logger:    logger.With().Str("worker", "hold_release").Logger(),
	}
}

func (w *HoldReleaseWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("worker started")

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

// RunOnce drains expired holds batch by batch until a short batch comes back.
func (w *HoldReleaseWorker) RunOnce(ctx context.Context) int {
	total := 0
	for {
		n, err := w.releaser.ReleaseExpiredHolds(ctx, w.batchSize)
		total += n
		if err != nil {
			w.logger.Error().Err(err).Int("released", total).Msg("hold release failed")
			return total
		}
		if n < w.batchSize || ctx.Err() != nil {
			break
		}
	}
	if total > 0 {
		w.logger.Info().Int("released", total).Msg("released expired holds")
	}
	return total
}
