package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/models"
)

// DepositStore credits an inbound bank transfer, idempotent on the partner
// reference.
type DepositStore interface {
	CreditDeposit(ctx context.Context, accountNumber string, amountKobo int64, reference, narration string) (*models.Transaction, error)
}

// BankCredit is the normalized payload of a partner settlement webhook.
type BankCredit struct {
	AccountNumber string
	AmountKobo    int64
	Reference     string
	Narration     string
}

type DepositService struct {
	store DepositStore
	log   *zap.Logger
}

func NewDepositService(store DepositStore, log *zap.Logger) *DepositService {
	return &DepositService{store: store, log: log}
}

// HandleBankCredit applies a settlement notification. Replays of the same
// reference return the original transaction without moving money again.
func (s *DepositService) HandleBankCredit(ctx context.Context, credit BankCredit) (*models.Transaction, error) {
	if credit.Reference == "" {
		return nil, fmt.Errorf("%w: reference is required", models.ErrInvalidRequest)
	}
	if credit.AmountKobo <= 0 {
		return nil, fmt.Errorf("%w: invalid amount %d", models.ErrInvalidRequest, credit.AmountKobo)
	}
	if credit.AccountNumber == "" {
		return nil, fmt.Errorf("%w: account number is required", models.ErrInvalidRequest)
	}

	txn, err := s.store.CreditDeposit(ctx, credit.AccountNumber, credit.AmountKobo, credit.Reference, credit.Narration)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			s.log.Warn("settlement for unknown account",
				zap.String("account_number", credit.AccountNumber),
				zap.String("reference", credit.Reference))
		}
		return nil, err
	}
	s.log.Info("wallet credited from bank transfer",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("reference", credit.Reference),
		zap.Int64("amount_kobo", credit.AmountKobo))
	return txn, nil
}
