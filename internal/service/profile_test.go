package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
)

type fakeProfileStore struct {
	profiles      map[uuid.UUID]*models.Profile
	transactions  map[uuid.UUID]*models.Transaction
	beneficiaries []models.Beneficiary
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		profiles:     make(map[uuid.UUID]*models.Profile),
		transactions: make(map[uuid.UUID]*models.Transaction),
	}
}

func (f *fakeProfileStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeProfileStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfileStore) ListProfiles(ctx context.Context, limit, offset int32) ([]models.Profile, error) {
	out := make([]models.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProfileStore) SetProfileStatus(ctx context.Context, id uuid.UUID, status string) error {
	p, ok := f.profiles[id]
	if !ok {
		return models.ErrProfileNotFound
	}
	p.Status = status
	return nil
}

func (f *fakeProfileStore) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	txn, ok := f.transactions[id]
	if !ok {
		return nil, models.ErrTransactionNotFound
	}
	return txn, nil
}

func (f *fakeProfileStore) ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, txn := range f.transactions {
		if txn.UserID == userID {
			out = append(out, *txn)
		}
	}
	return out, nil
}

func (f *fakeProfileStore) CreateBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	f.beneficiaries = append(f.beneficiaries, *b)
	return nil
}

func (f *fakeProfileStore) ListBeneficiaries(ctx context.Context, userID uuid.UUID) ([]models.Beneficiary, error) {
	var out []models.Beneficiary
	for _, b := range f.beneficiaries {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestRegisterNormalizesInput(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store)

	p, err := svc.Register(context.Background(), "  Ada Obi ", " Ada.Obi@Example.COM ", "08031234567")
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", p.FullName)
	assert.Equal(t, "ada.obi@example.com", p.Email)
	assert.Equal(t, "2348031234567", p.Phone)
	assert.Equal(t, domain.ProfileStatusActive, p.Status)
	assert.Equal(t, domain.RoleUser, p.Role)
	assert.Len(t, store.profiles, 1)
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc := NewProfileService(newFakeProfileStore())

	_, err := svc.Register(context.Background(), "", "ada@example.com", "08031234567")
	require.ErrorIs(t, err, models.ErrInvalidRequest)

	_, err = svc.Register(context.Background(), "Ada Obi", "ada@example.com", "")
	require.ErrorIs(t, err, models.ErrInvalidRequest)
}

func TestSuspendProfile(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store)

	p, err := svc.Register(context.Background(), "Ada Obi", "ada@example.com", "08031234567")
	require.NoError(t, err)

	require.NoError(t, svc.Suspend(context.Background(), p.ID))
	assert.Equal(t, domain.ProfileStatusSuspended, store.profiles[p.ID].Status)

	err = svc.Suspend(context.Background(), uuid.New())
	require.ErrorIs(t, err, models.ErrProfileNotFound)
}

func TestGetTransactionEnforcesOwnership(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store)

	owner := uuid.New()
	txn := &models.Transaction{ID: uuid.New(), UserID: owner, Type: domain.TxTypeAirtime}
	store.transactions[txn.ID] = txn

	got, err := svc.GetTransaction(context.Background(), owner, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)

	_, err = svc.GetTransaction(context.Background(), uuid.New(), txn.ID)
	require.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestAddBeneficiaryDerivesNetwork(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store)

	userID := uuid.New()
	b, err := svc.AddBeneficiary(context.Background(), userID, "Mum", "08052345678")
	require.NoError(t, err)
	assert.Equal(t, "glo", b.Network)

	_, err = svc.AddBeneficiary(context.Background(), userID, "Mum", "12345")
	require.ErrorIs(t, err, models.ErrInvalidCarrier)
}
