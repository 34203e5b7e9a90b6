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
)

type fakeDepositStore struct {
	byReference map[string]*models.Transaction
	credits     int
	accounts    map[string]uuid.UUID
}

func newFakeDepositStore() *fakeDepositStore {
	return &fakeDepositStore{
		byReference: make(map[string]*models.Transaction),
		accounts:    make(map[string]uuid.UUID),
	}
}

func (f *fakeDepositStore) CreditDeposit(ctx context.Context, accountNumber string, amountKobo int64, reference, narration string) (*models.Transaction, error) {
	if existing, ok := f.byReference[reference]; ok {
		return existing, nil
	}
	userID, ok := f.accounts[accountNumber]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	f.credits++
	txn := &models.Transaction{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       domain.TxTypeDeposit,
		AmountKobo: amountKobo,
		Status:     domain.TxStatusSuccess,
		Reference:  &reference,
	}
	f.byReference[reference] = txn
	return txn, nil
}

func TestDepositReplaySameReference(t *testing.T) {
	store := newFakeDepositStore()
	store.accounts["7821004321"] = uuid.New()
	svc := NewDepositService(store, zap.NewNop())

	credit := BankCredit{
		AccountNumber: "7821004321",
		AmountKobo:    500_000,
		Reference:     "FLW-1",
		Narration:     "transfer from GTB",
	}
	first, err := svc.HandleBankCredit(context.Background(), credit)
	require.NoError(t, err)
	second, err := svc.HandleBankCredit(context.Background(), credit)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.credits, "a replayed webhook must not credit twice")
}

func TestDepositUnknownAccount(t *testing.T) {
	svc := NewDepositService(newFakeDepositStore(), zap.NewNop())

	_, err := svc.HandleBankCredit(context.Background(), BankCredit{
		AccountNumber: "0000000000",
		AmountKobo:    500_000,
		Reference:     "FLW-2",
	})
	require.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestDepositValidation(t *testing.T) {
	svc := NewDepositService(newFakeDepositStore(), zap.NewNop())

	_, err := svc.HandleBankCredit(context.Background(), BankCredit{AccountNumber: "1", AmountKobo: 100})
	require.Error(t, err, "missing reference")

	_, err = svc.HandleBankCredit(context.Background(), BankCredit{AccountNumber: "1", Reference: "r", AmountKobo: 0})
	require.Error(t, err, "non-positive amount")
}
