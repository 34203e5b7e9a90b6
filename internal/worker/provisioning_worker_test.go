package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
)

type fakeOutbox struct {
	events     []models.OutboxEvent
	dispatched []int64
	failed     []int64
	parked     []int64
	lastRetry  time.Duration
}

func (f *fakeOutbox) ClaimOutboxEvents(ctx context.Context, batchSize int32, staleAfter time.Duration) ([]models.OutboxEvent, error) {
	out := f.events
	f.events = nil
	return out, nil
}

func (f *fakeOutbox) MarkOutboxDispatched(ctx context.Context, id int64) error {
	f.dispatched = append(f.dispatched, id)
	return nil
}

func (f *fakeOutbox) MarkOutboxFailed(ctx context.Context, id int64, retryAfter time.Duration, lastError string) error {
	f.failed = append(f.failed, id)
	f.lastRetry = retryAfter
	return nil
}

func (f *fakeOutbox) MarkOutboxParked(ctx context.Context, id int64, reason string) error {
	f.parked = append(f.parked, id)
	return nil
}

type fakeIssuer struct {
	err   error
	calls int
}

func (f *fakeIssuer) Issue(ctx context.Context, userID uuid.UUID) (*models.VirtualAccount, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.VirtualAccount{ID: uuid.New(), UserID: userID, AccountNumber: "7821004321"}, nil
}

func provisionEvent(id int64, attempts int32) models.OutboxEvent {
	payload, _ := json.Marshal(map[string]string{"user_id": uuid.New().String()})
	return models.OutboxEvent{
		ID:        id,
		EventType: domain.EventAccountProvision,
		Payload:   payload,
		Attempts:  attempts,
	}
}

func TestProvisioningWorkerDispatchesOnSuccess(t *testing.T) {
	outbox := &fakeOutbox{events: []models.OutboxEvent{provisionEvent(1, 0)}}
	issuer := &fakeIssuer{}
	w := NewProvisioningWorker(outbox, issuer)

	require.NoError(t, w.ProcessOnce(context.Background()))
	assert.Equal(t, 1, issuer.calls)
	assert.Equal(t, []int64{1}, outbox.dispatched)
	assert.Empty(t, outbox.failed)
	assert.Empty(t, outbox.parked)
}

func TestProvisioningWorkerRetriesTransientFailure(t *testing.T) {
	outbox := &fakeOutbox{events: []models.OutboxEvent{provisionEvent(2, 3)}}
	issuer := &fakeIssuer{err: errors.New("partner timeout")}
	w := NewProvisioningWorker(outbox, issuer)

	require.NoError(t, w.ProcessOnce(context.Background()))
	assert.Equal(t, []int64{2}, outbox.failed)
	assert.Equal(t, 8*time.Second, outbox.lastRetry, "backoff doubles per attempt")
	assert.Empty(t, outbox.parked)
}

func TestProvisioningWorkerParksOnBVNRequired(t *testing.T) {
	outbox := &fakeOutbox{events: []models.OutboxEvent{provisionEvent(3, 0)}}
	issuer := &fakeIssuer{err: models.ErrBVNRequired}
	w := NewProvisioningWorker(outbox, issuer)

	require.NoError(t, w.ProcessOnce(context.Background()))
	assert.Equal(t, []int64{3}, outbox.parked)
	assert.Empty(t, outbox.failed)
}

func TestProvisioningWorkerParksAfterMaxAttempts(t *testing.T) {
	outbox := &fakeOutbox{events: []models.OutboxEvent{provisionEvent(4, 9)}}
	issuer := &fakeIssuer{err: errors.New("partner down")}
	w := NewProvisioningWorker(outbox, issuer)

	require.NoError(t, w.ProcessOnce(context.Background()))
	assert.Equal(t, []int64{4}, outbox.parked)
}

func TestProvisioningWorkerParksMalformedPayload(t *testing.T) {
	outbox := &fakeOutbox{events: []models.OutboxEvent{{
		ID:        5,
		EventType: domain.EventAccountProvision,
		Payload:   json.RawMessage(`{"user_id":"not-a-uuid"}`),
	}}}
	issuer := &fakeIssuer{}
	w := NewProvisioningWorker(outbox, issuer)

	require.NoError(t, w.ProcessOnce(context.Background()))
	assert.Equal(t, []int64{5}, outbox.parked)
	assert.Zero(t, issuer.calls)
}
