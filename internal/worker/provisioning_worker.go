package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/models"
	"github.com/padimoney/padimoney-backend/internal/observability"
)

// OutboxStore claims pending events and records their outcomes. Claims use
// FOR UPDATE SKIP LOCKED so concurrent worker instances are safe.
type OutboxStore interface {
	ClaimOutboxEvents(ctx context.Context, batchSize int32, staleAfter time.Duration) ([]models.OutboxEvent, error)
	MarkOutboxDispatched(ctx context.Context, id int64) error
	MarkOutboxFailed(ctx context.Context, id int64, retryAfter time.Duration, lastError string) error
	MarkOutboxParked(ctx context.Context, id int64, reason string) error
}

// AccountIssuer provisions the virtual account for a user.
type AccountIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID) (*models.VirtualAccount, error)
}

// ProvisioningWorker consumes account-provision outbox events queued by KYC
// approval. Transient failures retry with exponential backoff; outcomes that
// need user action (missing BVN) park the event instead of retrying forever.
type ProvisioningWorker struct {
	store        OutboxStore
	issuer       AccountIssuer
	pollInterval time.Duration
	batchSize    int32
	staleAfter   time.Duration
	maxAttempts  int32
	stopCh       chan struct{}
}

func NewProvisioningWorker(store OutboxStore, issuer AccountIssuer) *ProvisioningWorker {
	return &ProvisioningWorker{
		store:        store,
		issuer:       issuer,
		pollInterval: 10 * time.Second,
		batchSize:    10,
		staleAfter:   5 * time.Minute, // reclaim events a crashed worker left in processing
		maxAttempts:  10,
		stopCh:       make(chan struct{}),
	}
}

func (w *ProvisioningWorker) WithPollInterval(interval time.Duration) *ProvisioningWorker {
	if interval > 0 {
		w.pollInterval = interval
	}
	return w
}

func (w *ProvisioningWorker) WithBatchSize(size int32) *ProvisioningWorker {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

// Start blocks and polls the outbox until Stop is called or the context is
// canceled.
func (w *ProvisioningWorker) Start(ctx context.Context) {
	zap.L().Info("provisioning worker starting",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int32("batch_size", w.batchSize))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("provisioning worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("provisioning worker stop signal received")
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *ProvisioningWorker) Stop() {
	close(w.stopCh)
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *ProvisioningWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// ProcessOnce claims and processes a single batch immediately.
func (w *ProvisioningWorker) ProcessOnce(ctx context.Context) error {
	return w.processBatch(ctx)
}

func (w *ProvisioningWorker) processBatch(ctx context.Context) error {
	events, err := w.store.ClaimOutboxEvents(ctx, w.batchSize, w.staleAfter)
	if err != nil {
		observability.IncrementWorkerRun("provisioning", "failed")
		zap.L().Error("claim outbox events", zap.Error(err))
		return err
	}
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		w.handle(ctx, event)
	}
	observability.IncrementWorkerRun("provisioning", "success")
	return nil
}

func (w *ProvisioningWorker) handle(ctx context.Context, event models.OutboxEvent) {
	var payload struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		w.park(ctx, event.ID, "malformed payload: "+err.Error())
		return
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		w.park(ctx, event.ID, "invalid user id: "+err.Error())
		return
	}

	account, err := w.issuer.Issue(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBVNRequired), errors.Is(err, models.ErrKYCTierTooLow), errors.Is(err, models.ErrProfileNotFound):
			// Needs user or admin action; retrying will not help.
			w.park(ctx, event.ID, err.Error())
		case event.Attempts+1 >= w.maxAttempts:
			w.park(ctx, event.ID, "max attempts exceeded: "+err.Error())
		default:
			retryAfter := backoff(event.Attempts)
			zap.L().Warn("provisioning attempt failed, will retry",
				zap.Int64("event_id", event.ID),
				zap.Int32("attempts", event.Attempts+1),
				zap.Duration("retry_after", retryAfter),
				zap.Error(err))
			if markErr := w.store.MarkOutboxFailed(ctx, event.ID, retryAfter, err.Error()); markErr != nil {
				zap.L().Error("mark outbox failed", zap.Int64("event_id", event.ID), zap.Error(markErr))
			}
		}
		return
	}

	if err := w.store.MarkOutboxDispatched(ctx, event.ID); err != nil {
		// The issuance is idempotent, so a redelivery after this failure is
		// harmless.
		zap.L().Error("mark outbox dispatched", zap.Int64("event_id", event.ID), zap.Error(err))
		return
	}
	zap.L().Info("virtual account provisioned",
		zap.Int64("event_id", event.ID),
		zap.String("user_id", userID.String()),
		zap.String("account_number", account.AccountNumber))
}

func (w *ProvisioningWorker) park(ctx context.Context, eventID int64, reason string) {
	zap.L().Warn("parking provisioning event",
		zap.Int64("event_id", eventID),
		zap.String("reason", reason))
	if err := w.store.MarkOutboxParked(ctx, eventID, reason); err != nil {
		zap.L().Error("mark outbox parked", zap.Int64("event_id", eventID), zap.Error(err))
	}
}

// backoff doubles per attempt, capped at ~4 minutes.
func backoff(attempts int32) time.Duration {
	if attempts > 8 {
		attempts = 8
	}
	return time.Duration(1<<attempts) * time.Second
}
