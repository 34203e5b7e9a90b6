package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
	"github.com/padimoney/padimoney-backend/internal/provider"
)

type fakeAccountStore struct {
	profiles map[uuid.UUID]*models.Profile
	notes    map[uuid.UUID]string
	accounts map[uuid.UUID]*models.VirtualAccount
	inserts  int
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		profiles: make(map[uuid.UUID]*models.Profile),
		notes:    make(map[uuid.UUID]string),
		accounts: make(map[uuid.UUID]*models.VirtualAccount),
	}
}

func (f *fakeAccountStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeAccountStore) SetProfileBVN(ctx context.Context, id uuid.UUID, bvn string) error {
	f.profiles[id].BVN = &bvn
	return nil
}

func (f *fakeAccountStore) GetLatestKYCNoteByDocType(ctx context.Context, userID uuid.UUID, documentType string) (string, error) {
	return f.notes[userID], nil
}

func (f *fakeAccountStore) GetVirtualAccountByUser(ctx context.Context, userID uuid.UUID) (*models.VirtualAccount, error) {
	va, ok := f.accounts[userID]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return va, nil
}

func (f *fakeAccountStore) InsertVirtualAccountIdempotent(ctx context.Context, va *models.VirtualAccount) (*models.VirtualAccount, error) {
	if existing, ok := f.accounts[va.UserID]; ok {
		return existing, nil
	}
	f.inserts++
	f.accounts[va.UserID] = va
	return va, nil
}

type stubBank struct {
	details *provider.VirtualAccountDetails
	err     error
	calls   int
}

func (s *stubBank) CreateVirtualAccount(ctx context.Context, req provider.VirtualAccountRequest) (*provider.VirtualAccountDetails, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.details, nil
}

type stubBureau struct {
	valid bool
}

func (s *stubBureau) VerifyBVN(ctx context.Context, bvn string) (*provider.BVNCheck, error) {
	return &provider.BVNCheck{IsValid: s.valid}, nil
}

func seedAccountProfile(store *fakeAccountStore, tier int32, bvn string) uuid.UUID {
	userID := uuid.New()
	p := &models.Profile{
		ID:       userID,
		FullName: "Ada Obi",
		Email:    "ada@example.com",
		Phone:    "08031234567",
		KYCTier:  tier,
		Status:   domain.ProfileStatusActive,
	}
	if bvn != "" {
		p.BVN = &bvn
	}
	store.profiles[userID] = p
	return userID
}

func TestAccountIssueIsIdempotent(t *testing.T) {
	store := newFakeAccountStore()
	userID := seedAccountProfile(store, 2, "22212345678")
	bank := &stubBank{details: &provider.VirtualAccountDetails{AccountNumber: "7821004321", BankName: "Wema Bank", OrderRef: "VA-1"}}
	svc := NewAccountService(store, bank, &stubBureau{valid: true}, &recordingEmail{}, zap.NewNop())

	first, err := svc.Issue(context.Background(), userID)
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.inserts, "repeat issuance must not insert a second row")
	assert.Equal(t, 1, bank.calls, "repeat issuance must not call the partner again")
}

func TestAccountIssueRequiresTier(t *testing.T) {
	store := newFakeAccountStore()
	userID := seedAccountProfile(store, 1, "22212345678")
	bank := &stubBank{}
	svc := NewAccountService(store, bank, &stubBureau{valid: true}, &recordingEmail{}, zap.NewNop())

	_, err := svc.Issue(context.Background(), userID)
	require.ErrorIs(t, err, models.ErrKYCTierTooLow)
	assert.Zero(t, bank.calls)
}

func TestAccountIssueBVNRequired(t *testing.T) {
	store := newFakeAccountStore()
	userID := seedAccountProfile(store, 2, "")
	bank := &stubBank{}
	svc := NewAccountService(store, bank, &stubBureau{valid: true}, &recordingEmail{}, zap.NewNop())

	_, err := svc.Issue(context.Background(), userID)
	require.ErrorIs(t, err, models.ErrBVNRequired)
	assert.Zero(t, bank.calls)
	assert.Empty(t, store.accounts, "no account row on the bvn-required path")
}

func TestAccountIssueRecoversBVNFromKYCNote(t *testing.T) {
	store := newFakeAccountStore()
	userID := seedAccountProfile(store, 2, "")
	store.notes[userID] = "verified against bureau, bvn 22212345678 confirmed by agent"
	bank := &stubBank{details: &provider.VirtualAccountDetails{AccountNumber: "7821004321", BankName: "Wema Bank"}}
	svc := NewAccountService(store, bank, &stubBureau{valid: true}, &recordingEmail{}, zap.NewNop())

	account, err := svc.Issue(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "7821004321", account.AccountNumber)

	// Recovery writes the mined value back to the profile.
	require.NotNil(t, store.profiles[userID].BVN)
	assert.Equal(t, "22212345678", *store.profiles[userID].BVN)
}

func TestAccountIssueRejectsInvalidRecoveredBVN(t *testing.T) {
	store := newFakeAccountStore()
	userID := seedAccountProfile(store, 2, "")
	store.notes[userID] = "bvn 22212345678"
	bank := &stubBank{}
	svc := NewAccountService(store, bank, &stubBureau{valid: false}, &recordingEmail{}, zap.NewNop())

	_, err := svc.Issue(context.Background(), userID)
	require.ErrorIs(t, err, models.ErrBVNRequired)
	assert.Zero(t, bank.calls)
}

func TestAccountIssuePartnerFailureInsertsNothing(t *testing.T) {
	store := newFakeAccountStore()
	userID := seedAccountProfile(store, 2, "22212345678")
	bank := &stubBank{err: assert.AnError}
	svc := NewAccountService(store, bank, &stubBureau{valid: true}, &recordingEmail{}, zap.NewNop())

	_, err := svc.Issue(context.Background(), userID)
	require.Error(t, err)
	assert.Empty(t, store.accounts)
}
