package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/observability"
	"github.com/padimoney/padimoney-backend/internal/service"
)

// SweepWorker periodically expires transactions stuck in pending past the
// TTL, refunding the wallet debit.
type SweepWorker struct {
	svc      *service.SweepService
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewSweepWorker(svc *service.SweepService) *SweepWorker {
	return &SweepWorker{
		svc:      svc,
		interval: 5 * time.Minute,
		stopCh:   make(chan struct{}),
	}
}

func (w *SweepWorker) WithInterval(interval time.Duration) *SweepWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and runs the sweep at the configured interval.
func (w *SweepWorker) Start(ctx context.Context) {
	zap.L().Info("sweep worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately at startup to clear any backlog.
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("sweep worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("sweep worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *SweepWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *SweepWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *SweepWorker) runOnce(ctx context.Context) {
	count, err := w.svc.ExpireStuckTransactions(ctx)
	if err != nil {
		observability.IncrementWorkerRun("sweep", "failed")
		zap.L().Error("sweep run failed", zap.Error(err))
		return
	}
	if count > 0 {
		zap.L().Info("sweep expired pending transactions", zap.Int("count", count))
	}
	observability.IncrementWorkerRun("sweep", "success")
}
