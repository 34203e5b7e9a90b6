package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
	"github.com/padimoney/padimoney-backend/internal/observability"
	"github.com/padimoney/padimoney-backend/internal/provider"
)

// PurchaseLedger is the slice of the store the orchestrator needs: open the
// pending entry before the provider call, finalize it exactly once after.
type PurchaseLedger interface {
	DebitAndOpenPending(ctx context.Context, userID uuid.UUID, txType string, amountKobo int64, description string, metadata json.RawMessage) (*models.Transaction, error)
	OpenPending(ctx context.Context, userID uuid.UUID, txType string, amountKobo int64, description string, metadata json.RawMessage) (*models.Transaction, error)
	FinalizeSuccess(ctx context.Context, txID uuid.UUID, reference, description string, creditUser bool) error
	FinalizeFailed(ctx context.Context, txID uuid.UUID, reason string) error
}

// Providers is the registry of product adapters injected at construction.
type Providers struct {
	Airtime provider.AirtimeProvider
	Data    provider.DataProvider
	Epin    provider.EpinProvider
	Rates   provider.RateSource
}

// PurchaseResult is returned to the caller on a successful purchase.
type PurchaseResult struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Reference     string    `json:"reference"`
	Message       string    `json:"message,omitempty"`
}

type PurchaseService struct {
	ledger    PurchaseLedger
	providers Providers
	ngnPerUSD decimal.Decimal
	log       *zap.Logger
}

func NewPurchaseService(ledger PurchaseLedger, providers Providers, ngnPerUSD decimal.Decimal, log *zap.Logger) *PurchaseService {
	return &PurchaseService{
		ledger:    ledger,
		providers: providers,
		ngnPerUSD: ngnPerUSD,
		log:       log,
	}
}

type AirtimeParams struct {
	Network    string
	Phone      string
	AmountKobo int64
}

func (s *PurchaseService) PurchaseAirtime(ctx context.Context, userID uuid.UUID, p AirtimeParams) (*PurchaseResult, error) {
	if p.AmountKobo <= 0 {
		return nil, fmt.Errorf("%w: invalid amount %d", models.ErrInvalidRequest, p.AmountKobo)
	}
	network := p.Network
	if network == "" {
		detected, ok := domain.DetectCarrier(p.Phone)
		if !ok {
			return nil, models.ErrInvalidCarrier
		}
		network = string(detected)
	}
	if !domain.Carrier(network).Valid() {
		return nil, models.ErrInvalidCarrier
	}

	meta, _ := json.Marshal(map[string]string{"network": network, "phone": p.Phone})
	desc := fmt.Sprintf("%s airtime for %s", network, p.Phone)

	txn, err := s.ledger.DebitAndOpenPending(ctx, userID, domain.TxTypeAirtime, p.AmountKobo, desc, meta)
	if err != nil {
		return nil, err
	}

	res := s.providers.Airtime.PurchaseAirtime(ctx, provider.AirtimePurchase{
		Network:     network,
		PhoneNumber: p.Phone,
		AmountKobo:  p.AmountKobo,
		RequestID:   txn.ID.String(),
	})
	return s.settle(ctx, txn, domain.TxTypeAirtime, desc, res, false)
}

type DataParams struct {
	Network    string
	Phone      string
	PlanID     string
	AmountKobo int64
}

func (s *PurchaseService) PurchaseData(ctx context.Context, userID uuid.UUID, p DataParams) (*PurchaseResult, error) {
	if p.AmountKobo <= 0 {
		return nil, fmt.Errorf("%w: invalid amount %d", models.ErrInvalidRequest, p.AmountKobo)
	}
	if p.PlanID == "" {
		return nil, fmt.Errorf("%w: plan_id is required", models.ErrInvalidRequest)
	}
	if !domain.Carrier(p.Network).Valid() {
		return nil, models.ErrInvalidCarrier
	}

	meta, _ := json.Marshal(map[string]string{"network": p.Network, "phone": p.Phone, "plan_id": p.PlanID})
	desc := fmt.Sprintf("%s data plan %s for %s", p.Network, p.PlanID, p.Phone)

	txn, err := s.ledger.DebitAndOpenPending(ctx, userID, domain.TxTypeData, p.AmountKobo, desc, meta)
	if err != nil {
		return nil, err
	}

	res := s.providers.Data.PurchaseData(ctx, provider.DataPurchase{
		Network:     p.Network,
		PhoneNumber: p.Phone,
		PlanID:      p.PlanID,
		RequestID:   txn.ID.String(),
	})
	return s.settle(ctx, txn, domain.TxTypeData, desc, res, false)
}

type EpinParams struct {
	ExamType   string
	Quantity   int
	AmountKobo int64
}

func (s *PurchaseService) PurchaseEpin(ctx context.Context, userID uuid.UUID, p EpinParams) (*PurchaseResult, error) {
	if p.AmountKobo <= 0 {
		return nil, fmt.Errorf("%w: invalid amount %d", models.ErrInvalidRequest, p.AmountKobo)
	}
	if p.ExamType == "" {
		return nil, fmt.Errorf("%w: exam_type is required", models.ErrInvalidRequest)
	}
	if p.Quantity <= 0 {
		p.Quantity = 1
	}

	meta, _ := json.Marshal(map[string]any{"exam_type": p.ExamType, "quantity": p.Quantity})
	desc := fmt.Sprintf("%s e-pin x%d", p.ExamType, p.Quantity)

	txn, err := s.ledger.DebitAndOpenPending(ctx, userID, domain.TxTypeEducation, p.AmountKobo, desc, meta)
	if err != nil {
		return nil, err
	}

	res := s.providers.Epin.PurchaseEpin(ctx, provider.EpinPurchase{
		ExamType:  p.ExamType,
		Quantity:  p.Quantity,
		RequestID: txn.ID.String(),
	})
	return s.settle(ctx, txn, domain.TxTypeEducation, desc, res, false)
}

type CryptoParams struct {
	AssetID  string
	Quantity decimal.Decimal
}

// BuyCrypto debits the naira value of the asset quantity at the current spot
// rate. The rate fetch happens before any ledger write since it moves no
// value.
func (s *PurchaseService) BuyCrypto(ctx context.Context, userID uuid.UUID, p CryptoParams) (*PurchaseResult, error) {
	amountKobo, rate, err := s.priceCrypto(ctx, p)
	if err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]string{
		"asset":    p.AssetID,
		"quantity": p.Quantity.String(),
		"usd_rate": rate.String(),
	})
	desc := fmt.Sprintf("buy %s %s", p.Quantity, p.AssetID)

	txn, err := s.ledger.DebitAndOpenPending(ctx, userID, domain.TxTypeCryptoBuy, amountKobo, desc, meta)
	if err != nil {
		return nil, err
	}
	res := provider.Result{Success: true, Reference: txn.ID.String(), Message: "order filled"}
	return s.settle(ctx, txn, domain.TxTypeCryptoBuy, desc, res, false)
}

// SellCrypto opens the pending entry without a debit and credits the wallet
// on finalize.
func (s *PurchaseService) SellCrypto(ctx context.Context, userID uuid.UUID, p CryptoParams) (*PurchaseResult, error) {
	amountKobo, rate, err := s.priceCrypto(ctx, p)
	if err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]string{
		"asset":    p.AssetID,
		"quantity": p.Quantity.String(),
		"usd_rate": rate.String(),
	})
	desc := fmt.Sprintf("sell %s %s", p.Quantity, p.AssetID)

	txn, err := s.ledger.OpenPending(ctx, userID, domain.TxTypeCryptoSell, amountKobo, desc, meta)
	if err != nil {
		return nil, err
	}
	res := provider.Result{Success: true, Reference: txn.ID.String(), Message: "order filled"}
	return s.settle(ctx, txn, domain.TxTypeCryptoSell, desc, res, true)
}

func (s *PurchaseService) priceCrypto(ctx context.Context, p CryptoParams) (int64, decimal.Decimal, error) {
	if p.AssetID == "" {
		return 0, decimal.Zero, models.ErrUnknownAsset
	}
	if p.Quantity.Sign() <= 0 {
		return 0, decimal.Zero, fmt.Errorf("%w: invalid quantity %s", models.ErrInvalidRequest, p.Quantity)
	}
	rate, err := s.providers.Rates.GetRate(ctx, p.AssetID)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("%w: fetch rate for %s: %v", models.ErrProviderUnavailable, p.AssetID, err)
	}
	if rate.Sign() <= 0 {
		return 0, decimal.Zero, models.ErrUnknownAsset
	}
	amount := domain.CryptoValueKobo(p.Quantity, rate, s.ngnPerUSD)
	if amount <= 0 {
		return 0, decimal.Zero, fmt.Errorf("%w: quantity too small to price", models.ErrInvalidRequest)
	}
	return int64(amount), rate, nil
}

// settle finalizes the pending entry from the adapter outcome. Both branches
// finalize; the failed branch surfaces the adapter message as a domain error.
func (s *PurchaseService) settle(ctx context.Context, txn *models.Transaction, product, desc string, res provider.Result, creditOnSuccess bool) (*PurchaseResult, error) {
	if !res.Success {
		if err := s.ledger.FinalizeFailed(ctx, txn.ID, res.Message); err != nil {
			s.log.Error("finalize failed purchase",
				zap.String("transaction_id", txn.ID.String()),
				zap.Error(err))
			return nil, fmt.Errorf("finalize failed purchase: %w", err)
		}
		observability.IncrementPurchase(product, "failed")
		msg := res.Message
		if msg == "" {
			msg = "provider declined"
		}
		return nil, fmt.Errorf("%w: %s (transaction %s)", models.ErrPurchaseDeclined, msg, txn.ID)
	}

	if err := s.ledger.FinalizeSuccess(ctx, txn.ID, res.Reference, desc, creditOnSuccess); err != nil {
		s.log.Error("finalize successful purchase",
			zap.String("transaction_id", txn.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("finalize purchase: %w", err)
	}
	observability.IncrementPurchase(product, "success")
	return &PurchaseResult{
		TransactionID: txn.ID,
		Reference:     res.Reference,
		Message:       res.Message,
	}, nil
}
