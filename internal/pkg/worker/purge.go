package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const purgeTimeout = time.Minute

// Purger deletes expired shares.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeWorker deletes expired shares on a cron schedule. Runs never overlap.
type PurgeWorker struct {
	cron     *cron.Cron
	purger   Purger
	schedule string
}

func NewPurgeWorker(purger Purger, schedule string) *PurgeWorker {
	return &PurgeWorker{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		purger:   purger,
		schedule: schedule,
	}
}

func (w *PurgeWorker) Name() string { return "share-purge" }

func (w *PurgeWorker) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		w.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", w.schedule, err)
	}
	w.cron.Start()
	logger.Info("Share purge worker started", zap.String("schedule", w.schedule))
	return nil
}

// RunOnce performs a single purge and logs its outcome.
func (w *PurgeWorker) RunOnce(ctx context.Context) {
	n, err := w.purger.PurgeExpired(ctx)
	if err != nil {
		logger.Error("Share purge failed", zap.Error(err))
		return
	}
	logger.Debug("Share purge finished", zap.Int64("deleted", n))
}

// Stop prevents new runs and waits for a running one, or for ctx.
func (w *PurgeWorker) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warn("Share purge worker did not stop in time")
	}
}
