package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/models"
	"github.com/padimoney/padimoney-backend/internal/observability"
)

// SweepStore expires purchase transactions stuck in pending.
type SweepStore interface {
	ExpireStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]models.Transaction, error)
}

// SweepService fails pending transactions older than the TTL and refunds the
// wallet debit. A provider call that never returned otherwise leaves the user
// with money gone and no outcome.
type SweepService struct {
	store      SweepStore
	pendingTTL time.Duration
	batchSize  int32
	log        *zap.Logger
}

func NewSweepService(store SweepStore, pendingTTL time.Duration, batchSize int32, log *zap.Logger) *SweepService {
	return &SweepService{
		store:      store,
		pendingTTL: pendingTTL,
		batchSize:  batchSize,
		log:        log,
	}
}

func (s *SweepService) ExpireStuckTransactions(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.pendingTTL)
	expired, err := s.store.ExpireStalePending(ctx, cutoff, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("expire stale pending transactions: %w", err)
	}
	for _, txn := range expired {
		s.log.Info("expired stuck pending transaction",
			zap.String("transaction_id", txn.ID.String()),
			zap.String("type", txn.Type),
			zap.Int64("amount_kobo", txn.AmountKobo))
	}
	observability.AddSweptTransactions(len(expired))
	return len(expired), nil
}
