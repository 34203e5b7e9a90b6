package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
)

type fakeDispatchStore struct {
	contacts []models.Contact
	logs     []models.CommunicationLog
}

func (f *fakeDispatchStore) ListContacts(ctx context.Context, channel string, adminsOnly bool) ([]models.Contact, error) {
	return f.contacts, nil
}

func (f *fakeDispatchStore) InsertCommunicationLog(ctx context.Context, l *models.CommunicationLog) error {
	f.logs = append(f.logs, *l)
	return nil
}

// flakySMS fails for one specific recipient.
type flakySMS struct {
	failFor string
	sent    []string
}

func (f *flakySMS) SendSMS(ctx context.Context, to, message string) error {
	if to == f.failFor {
		return errors.New("carrier rejected")
	}
	f.sent = append(f.sent, to)
	return nil
}

func TestDispatchPartialFailureDoesNotAbortBatch(t *testing.T) {
	store := &fakeDispatchStore{contacts: []models.Contact{
		{UserID: uuid.New(), Address: "08031110001"},
		{UserID: uuid.New(), Address: "08031110002"},
		{UserID: uuid.New(), Address: "08031110003"},
	}}
	sms := &flakySMS{failFor: "08031110002"}
	svc := NewDispatchService(store, &recordingEmail{}, sms, 0, zap.NewNop())

	report, err := svc.Dispatch(context.Background(), DispatchRequest{
		Channel:       domain.ChannelSMS,
		RecipientMode: domain.RecipientModeAll,
		Body:          "maintenance tonight",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 3)
	assert.Equal(t, []string{"08031110001", "08031110003"}, sms.sent, "the batch continues past a failed recipient")
	assert.Len(t, store.logs, 3)
}

func TestDispatchSingleRequiresRecipient(t *testing.T) {
	svc := NewDispatchService(&fakeDispatchStore{}, &recordingEmail{}, &flakySMS{}, 0, zap.NewNop())

	_, err := svc.Dispatch(context.Background(), DispatchRequest{
		Channel:       domain.ChannelEmail,
		RecipientMode: domain.RecipientModeSingle,
		Body:          "hello",
	})
	require.Error(t, err)
}

func TestDispatchSingleEmail(t *testing.T) {
	email := &recordingEmail{}
	svc := NewDispatchService(&fakeDispatchStore{}, email, &flakySMS{}, 0, zap.NewNop())

	report, err := svc.Dispatch(context.Background(), DispatchRequest{
		Channel:       domain.ChannelEmail,
		RecipientMode: domain.RecipientModeSingle,
		Recipient:     "ada@example.com",
		Subject:       "Welcome",
		Body:          "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, []string{"ada@example.com"}, email.sent)
}

func TestDispatchSkipsEmptyAddresses(t *testing.T) {
	store := &fakeDispatchStore{contacts: []models.Contact{
		{UserID: uuid.New(), Address: "ada@example.com"},
		{UserID: uuid.New(), Address: ""},
	}}
	email := &recordingEmail{}
	svc := NewDispatchService(store, email, &flakySMS{}, 0, zap.NewNop())

	report, err := svc.Dispatch(context.Background(), DispatchRequest{
		Channel:       domain.ChannelEmail,
		RecipientMode: domain.RecipientModeAll,
		Body:          "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Zero(t, report.Failed)
}

func TestDispatchUnknownChannel(t *testing.T) {
	svc := NewDispatchService(&fakeDispatchStore{}, &recordingEmail{}, &flakySMS{}, 0, zap.NewNop())

	_, err := svc.Dispatch(context.Background(), DispatchRequest{
		Channel:       "pigeon",
		RecipientMode: domain.RecipientModeAll,
		Body:          "hello",
	})
	require.Error(t, err)
}
