package worker

import (
	"context"

	"github.com/3Eeeecho/go-divelog/internal/config"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"go.uber.org/zap"
)

type Worker interface {
	Name() string
	Start() error
	Stop(ctx context.Context)
}

// Manager owns the background workers of the process.
type Manager struct {
	workers []Worker
}

// StartAllWorkers starts every background worker enabled by cfg.
func StartAllWorkers(cfg *config.Config, purger Purger) (*Manager, error) {
	m := &Manager{}

	if cfg.Share.PurgeCron != "" {
		if err := m.start(NewPurgeWorker(purger, cfg.Share.PurgeCron)); err != nil {
			m.StopAll(context.Background())
			return nil, err
		}
	}

	logger.Info("Background workers started", zap.Int("count", len(m.workers)))
	return m, nil
}

func (m *Manager) start(w Worker) error {
	if err := w.Start(); err != nil {
		return err
	}
	m.workers = append(m.workers, w)
	return nil
}

// StopAll stops workers in reverse start order.
func (m *Manager) StopAll(ctx context.Context) {
	for i := len(m.workers) - 1; i >= 0; i-- {
		m.workers[i].Stop(ctx)
		logger.Info("Worker stopped", zap.String("worker", m.workers[i].Name()))
	}
	m.workers = nil
}
