package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
	"github.com/padimoney/padimoney-backend/internal/provider"
)

// fakeLedger records every call so tests can assert ordering and
// finalize-exactly-once.
type fakeLedger struct {
	balanceKobo int64
	pending     map[uuid.UUID]*models.Transaction
	finalized   map[uuid.UUID]string
	openCalls   int
	debitErr    error
}

func newFakeLedger(balanceKobo int64) *fakeLedger {
	return &fakeLedger{
		balanceKobo: balanceKobo,
		pending:     make(map[uuid.UUID]*models.Transaction),
		finalized:   make(map[uuid.UUID]string),
	}
}

func (f *fakeLedger) DebitAndOpenPending(ctx context.Context, userID uuid.UUID, txType string, amountKobo int64, description string, metadata json.RawMessage) (*models.Transaction, error) {
	if f.debitErr != nil {
		return nil, f.debitErr
	}
	if f.balanceKobo < amountKobo {
		return nil, models.ErrInsufficientFunds
	}
	f.balanceKobo -= amountKobo
	return f.open(userID, txType, amountKobo, description)
}

func (f *fakeLedger) OpenPending(ctx context.Context, userID uuid.UUID, txType string, amountKobo int64, description string, metadata json.RawMessage) (*models.Transaction, error) {
	return f.open(userID, txType, amountKobo, description)
}

func (f *fakeLedger) open(userID uuid.UUID, txType string, amountKobo int64, description string) (*models.Transaction, error) {
	f.openCalls++
	txn := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        txType,
		AmountKobo:  amountKobo,
		Status:      domain.TxStatusPending,
		Description: description,
	}
	f.pending[txn.ID] = txn
	return txn, nil
}

func (f *fakeLedger) FinalizeSuccess(ctx context.Context, txID uuid.UUID, reference, description string, creditUser bool) error {
	if _, done := f.finalized[txID]; done {
		return models.ErrAlreadyFinalized
	}
	txn, ok := f.pending[txID]
	if !ok {
		return models.ErrTransactionNotFound
	}
	txn.Status = domain.TxStatusSuccess
	txn.Reference = &reference
	f.finalized[txID] = domain.TxStatusSuccess
	if creditUser {
		f.balanceKobo += txn.AmountKobo
	}
	return nil
}

func (f *fakeLedger) FinalizeFailed(ctx context.Context, txID uuid.UUID, reason string) error {
	if _, done := f.finalized[txID]; done {
		return models.ErrAlreadyFinalized
	}
	txn, ok := f.pending[txID]
	if !ok {
		return models.ErrTransactionNotFound
	}
	txn.Status = domain.TxStatusFailed
	f.finalized[txID] = domain.TxStatusFailed
	if _, refundable := debitedTestTypes[txn.Type]; refundable {
		f.balanceKobo += txn.AmountKobo
	}
	return nil
}

var debitedTestTypes = map[string]struct{}{
	domain.TxTypeAirtime:   {},
	domain.TxTypeData:      {},
	domain.TxTypeEducation: {},
	domain.TxTypeCryptoBuy: {},
}

// stubAirtime asserts the ledger already holds a pending row at the moment
// the adapter is invoked.
type stubAirtime struct {
	t      *testing.T
	ledger *fakeLedger
	result provider.Result
	calls  int
}

func (s *stubAirtime) PurchaseAirtime(ctx context.Context, p provider.AirtimePurchase) provider.Result {
	s.calls++
	id, err := uuid.Parse(p.RequestID)
	require.NoError(s.t, err)
	txn, ok := s.ledger.pending[id]
	require.True(s.t, ok, "pending ledger row must exist before the provider is called")
	require.Equal(s.t, domain.TxStatusPending, txn.Status)
	return s.result
}

type stubRates struct {
	usd decimal.Decimal
	err error
}

func (s *stubRates) GetRates(ctx context.Context, ids []string) ([]models.CryptoRate, error) {
	if s.err != nil {
		return nil, s.err
	}
	rates := make([]models.CryptoRate, 0, len(ids))
	for _, id := range ids {
		rates = append(rates, models.CryptoRate{ID: id, USD: s.usd})
	}
	return rates, nil
}

func (s *stubRates) GetRate(ctx context.Context, id string) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.usd, nil
}

func TestPurchaseAirtimeSuccess(t *testing.T) {
	ledger := newFakeLedger(100_000)
	airtime := &stubAirtime{t: t, ledger: ledger, result: provider.Result{Success: true, Reference: "CK-1", Message: "ok"}}
	svc := NewPurchaseService(ledger, Providers{Airtime: airtime}, decimal.NewFromInt(1500), zap.NewNop())

	userID := uuid.New()
	res, err := svc.PurchaseAirtime(context.Background(), userID, AirtimeParams{
		Network:    "mtn",
		Phone:      "08031234567",
		AmountKobo: 50_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "CK-1", res.Reference)
	assert.Equal(t, 1, airtime.calls)

	txn := ledger.pending[res.TransactionID]
	require.NotNil(t, txn)
	assert.Equal(t, domain.TxStatusSuccess, txn.Status)
	require.NotNil(t, txn.Reference)
	assert.Equal(t, "CK-1", *txn.Reference)
	assert.Equal(t, int64(50_000), ledger.balanceKobo)
	assert.Len(t, ledger.finalized, 1)
}

func TestPurchaseAirtimeDeclineRefundsAndFinalizesFailed(t *testing.T) {
	ledger := newFakeLedger(100_000)
	airtime := &stubAirtime{t: t, ledger: ledger, result: provider.Result{Success: false, Message: "INSUFFICIENT_PROVIDER_FLOAT"}}
	svc := NewPurchaseService(ledger, Providers{Airtime: airtime}, decimal.NewFromInt(1500), zap.NewNop())

	_, err := svc.PurchaseAirtime(context.Background(), uuid.New(), AirtimeParams{
		Network:    "mtn",
		Phone:      "08031234567",
		AmountKobo: 50_000,
	})
	require.Error(t, err)
	require.ErrorIs(t, err, models.ErrPurchaseDeclined)
	assert.Contains(t, err.Error(), "INSUFFICIENT_PROVIDER_FLOAT")

	require.Len(t, ledger.finalized, 1)
	for _, status := range ledger.finalized {
		assert.Equal(t, domain.TxStatusFailed, status)
	}
	assert.Equal(t, int64(100_000), ledger.balanceKobo, "failed purchase must refund the debit")
}

func TestPurchaseAirtimeDetectsCarrierFromPhone(t *testing.T) {
	ledger := newFakeLedger(100_000)
	airtime := &stubAirtime{t: t, ledger: ledger, result: provider.Result{Success: true, Reference: "CK-2"}}
	svc := NewPurchaseService(ledger, Providers{Airtime: airtime}, decimal.NewFromInt(1500), zap.NewNop())

	_, err := svc.PurchaseAirtime(context.Background(), uuid.New(), AirtimeParams{
		Phone:      "08051234567", // glo prefix
		AmountKobo: 10_000,
	})
	require.NoError(t, err)
}

func TestPurchaseAirtimeUnknownCarrierNoLedgerRow(t *testing.T) {
	ledger := newFakeLedger(100_000)
	airtime := &stubAirtime{t: t, ledger: ledger}
	svc := NewPurchaseService(ledger, Providers{Airtime: airtime}, decimal.NewFromInt(1500), zap.NewNop())

	_, err := svc.PurchaseAirtime(context.Background(), uuid.New(), AirtimeParams{
		Phone:      "00000000000",
		AmountKobo: 10_000,
	})
	require.ErrorIs(t, err, models.ErrInvalidCarrier)
	assert.Zero(t, ledger.openCalls, "validation failures must not write to the ledger")
	assert.Zero(t, airtime.calls)
}

func TestPurchaseAirtimeInsufficientFunds(t *testing.T) {
	ledger := newFakeLedger(1_000)
	airtime := &stubAirtime{t: t, ledger: ledger}
	svc := NewPurchaseService(ledger, Providers{Airtime: airtime}, decimal.NewFromInt(1500), zap.NewNop())

	_, err := svc.PurchaseAirtime(context.Background(), uuid.New(), AirtimeParams{
		Network:    "mtn",
		Phone:      "08031234567",
		AmountKobo: 50_000,
	})
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Zero(t, airtime.calls, "provider must not be called when the debit fails")
}

func TestBuyCryptoDebitsNairaValue(t *testing.T) {
	ledger := newFakeLedger(10_000_000_000)
	rates := &stubRates{usd: decimal.NewFromInt(60_000)}
	svc := NewPurchaseService(ledger, Providers{Rates: rates}, decimal.NewFromInt(1500), zap.NewNop())

	res, err := svc.BuyCrypto(context.Background(), uuid.New(), CryptoParams{
		AssetID:  "bitcoin",
		Quantity: decimal.RequireFromString("0.001"),
	})
	require.NoError(t, err)

	// 0.001 BTC * 60000 USD * 1500 NGN/USD = 90,000 NGN = 9,000,000 kobo
	txn := ledger.pending[res.TransactionID]
	require.NotNil(t, txn)
	assert.Equal(t, int64(9_000_000), txn.AmountKobo)
	assert.Equal(t, domain.TxStatusSuccess, txn.Status)
	assert.Equal(t, int64(10_000_000_000-9_000_000), ledger.balanceKobo)
}

func TestSellCryptoCreditsOnFinalize(t *testing.T) {
	ledger := newFakeLedger(0)
	rates := &stubRates{usd: decimal.NewFromInt(60_000)}
	svc := NewPurchaseService(ledger, Providers{Rates: rates}, decimal.NewFromInt(1500), zap.NewNop())

	res, err := svc.SellCrypto(context.Background(), uuid.New(), CryptoParams{
		AssetID:  "bitcoin",
		Quantity: decimal.RequireFromString("0.001"),
	})
	require.NoError(t, err)

	txn := ledger.pending[res.TransactionID]
	require.NotNil(t, txn)
	assert.Equal(t, domain.TxStatusSuccess, txn.Status)
	assert.Equal(t, int64(9_000_000), ledger.balanceKobo, "sell proceeds credit the wallet on finalize")
}

func TestBuyCryptoRateFailureLeavesNoLedgerRow(t *testing.T) {
	ledger := newFakeLedger(1_000_000)
	rates := &stubRates{err: errors.New("rate source down")}
	svc := NewPurchaseService(ledger, Providers{Rates: rates}, decimal.NewFromInt(1500), zap.NewNop())

	_, err := svc.BuyCrypto(context.Background(), uuid.New(), CryptoParams{
		AssetID:  "bitcoin",
		Quantity: decimal.RequireFromString("0.001"),
	})
	require.Error(t, err)
	assert.Zero(t, ledger.openCalls)
	assert.Equal(t, int64(1_000_000), ledger.balanceKobo)
}
