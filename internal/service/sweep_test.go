package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
)

type fakeSweepStore struct {
	stale  []models.Transaction
	cutoff time.Time
}

func (f *fakeSweepStore) ExpireStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]models.Transaction, error) {
	f.cutoff = cutoff
	if int(limit) < len(f.stale) {
		return f.stale[:limit], nil
	}
	return f.stale, nil
}

func TestSweepExpiresStuckTransactions(t *testing.T) {
	store := &fakeSweepStore{stale: []models.Transaction{
		{ID: uuid.New(), Type: domain.TxTypeAirtime, AmountKobo: 50_000, Status: domain.TxStatusFailed},
		{ID: uuid.New(), Type: domain.TxTypeData, AmountKobo: 30_000, Status: domain.TxStatusFailed},
	}}
	svc := NewSweepService(store, 30*time.Minute, 100, zap.NewNop())

	count, err := svc.ExpireStuckTransactions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.WithinDuration(t, time.Now().Add(-30*time.Minute), store.cutoff, 5*time.Second)
}

func TestSweepRespectsBatchSize(t *testing.T) {
	store := &fakeSweepStore{stale: []models.Transaction{
		{ID: uuid.New(), Type: domain.TxTypeAirtime},
		{ID: uuid.New(), Type: domain.TxTypeAirtime},
		{ID: uuid.New(), Type: domain.TxTypeAirtime},
	}}
	svc := NewSweepService(store, time.Hour, 2, zap.NewNop())

	count, err := svc.ExpireStuckTransactions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
