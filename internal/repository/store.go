package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
)

// Store provides access to the query set and wraps every multi-row mutation
// in a database transaction.
type Store struct {
	db      *pgxpool.Pool
	queries *Queries
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db:      db,
		queries: New(db),
	}
}

// Queries returns the non-transactional query set.
func (s *Store) Queries() *Queries {
	return s.queries
}

// RunInTx executes fn within a database transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func requireExactlyOne(rows int64, operation string) error {
	if rows != 1 {
		return fmt.Errorf("%s affected %d rows", operation, rows)
	}
	return nil
}

// Purchase types whose pending ledger entry debited the wallet up front and
// therefore must be refunded on failure. Crypto sells credit on success
// instead, and deposits never debit.
var debitedTxTypes = map[string]struct{}{
	domain.TxTypeAirtime:   {},
	domain.TxTypeData:      {},
	domain.TxTypeEducation: {},
	domain.TxTypeCryptoBuy: {},
}

// DebitAndOpenPending atomically debits the wallet and opens the pending
// ledger entry. The provider call must not happen before this commits.
func (s *Store) DebitAndOpenPending(ctx context.Context, userID uuid.UUID, txType string, amountKobo int64, description string, metadata json.RawMessage) (*models.Transaction, error) {
	txn := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        txType,
		AmountKobo:  amountKobo,
		Status:      domain.TxStatusPending,
		Description: description,
		Metadata:    metadata,
	}
	err := s.RunInTx(ctx, func(q *Queries) error {
		profile, err := q.GetProfileForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrProfileNotFound
			}
			return fmt.Errorf("lock profile: %w", err)
		}
		if profile.Status != domain.ProfileStatusActive {
			return models.ErrProfileSuspended
		}
		if profile.BalanceKobo < amountKobo {
			return models.ErrInsufficientFunds
		}
		rows, err := q.DebitProfileBalance(ctx, userID, amountKobo)
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}
		if err := requireExactlyOne(rows, "debit balance"); err != nil {
			return err
		}
		if err := q.CreateTransaction(ctx, txn); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// OpenPending opens a pending ledger entry with no wallet movement (used by
// flows that credit on success, e.g. crypto sells).
func (s *Store) OpenPending(ctx context.Context, userID uuid.UUID, txType string, amountKobo int64, description string, metadata json.RawMessage) (*models.Transaction, error) {
	txn := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        txType,
		AmountKobo:  amountKobo,
		Status:      domain.TxStatusPending,
		Description: description,
		Metadata:    metadata,
	}
	err := s.RunInTx(ctx, func(q *Queries) error {
		profile, err := q.GetProfile(ctx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrProfileNotFound
			}
			return fmt.Errorf("load profile: %w", err)
		}
		if profile.Status != domain.ProfileStatusActive {
			return models.ErrProfileSuspended
		}
		if err := q.CreateTransaction(ctx, txn); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// FinalizeSuccess marks a pending transaction successful with the provider
// reference. creditUser additionally credits the wallet with the transaction
// amount in the same database transaction.
func (s *Store) FinalizeSuccess(ctx context.Context, txID uuid.UUID, reference, description string, creditUser bool) error {
	return s.RunInTx(ctx, func(q *Queries) error {
		txn, err := q.GetTransactionForUpdate(ctx, txID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrTransactionNotFound
			}
			return fmt.Errorf("lock transaction: %w", err)
		}
		if txn.Status != domain.TxStatusPending {
			return models.ErrAlreadyFinalized
		}
		rows, err := q.FinalizeTransaction(ctx, txID, domain.TxStatusSuccess, &reference, description)
		if err != nil {
			return fmt.Errorf("finalize transaction: %w", err)
		}
		if err := requireExactlyOne(rows, "finalize transaction"); err != nil {
			return err
		}
		if creditUser {
			rows, err := q.CreditProfileBalance(ctx, txn.UserID, txn.AmountKobo)
			if err != nil {
				return fmt.Errorf("credit balance: %w", err)
			}
			if err := requireExactlyOne(rows, "credit balance"); err != nil {
				return err
			}
		}
		return nil
	})
}

// FinalizeFailed marks a pending transaction failed and refunds the wallet
// debit when the purchase type took one.
func (s *Store) FinalizeFailed(ctx context.Context, txID uuid.UUID, reason string) error {
	return s.RunInTx(ctx, func(q *Queries) error {
		txn, err := q.GetTransactionForUpdate(ctx, txID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrTransactionNotFound
			}
			return fmt.Errorf("lock transaction: %w", err)
		}
		if txn.Status != domain.TxStatusPending {
			return models.ErrAlreadyFinalized
		}
		rows, err := q.FinalizeTransaction(ctx, txID, domain.TxStatusFailed, nil, reason)
		if err != nil {
			return fmt.Errorf("finalize transaction: %w", err)
		}
		if err := requireExactlyOne(rows, "finalize transaction"); err != nil {
			return err
		}
		if _, refundable := debitedTxTypes[txn.Type]; refundable {
			rows, err := q.CreditProfileBalance(ctx, txn.UserID, txn.AmountKobo)
			if err != nil {
				return fmt.Errorf("refund balance: %w", err)
			}
			if err := requireExactlyOne(rows, "refund balance"); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApproveKYC transitions a pending request to approved, bumps the user's tier
// by exactly one and queues the provisioning event in the same transaction.
// A committed approval always has its downstream event on disk.
func (s *Store) ApproveKYC(ctx context.Context, requestID uuid.UUID, adminNote string) (*models.KYCRequest, error) {
	var approved *models.KYCRequest
	err := s.RunInTx(ctx, func(q *Queries) error {
		req, err := q.GetKYCRequestForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrKYCRequestNotFound
			}
			return fmt.Errorf("lock kyc request: %w", err)
		}
		if req.Status != domain.KYCStatusPending {
			return models.ErrRequestNotPending
		}
		rows, err := q.UpdateKYCRequestStatus(ctx, requestID, domain.KYCStatusApproved, adminNote)
		if err != nil {
			return fmt.Errorf("approve kyc request: %w", err)
		}
		if err := requireExactlyOne(rows, "approve kyc request"); err != nil {
			return err
		}
		rows, err = q.IncrementKYCTier(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("increment kyc tier: %w", err)
		}
		if err := requireExactlyOne(rows, "increment kyc tier"); err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]string{"user_id": req.UserID.String()})
		if err != nil {
			return fmt.Errorf("encode provision payload: %w", err)
		}
		if err := q.InsertOutboxEvent(ctx, domain.EventAccountProvision, payload); err != nil {
			return fmt.Errorf("queue provisioning event: %w", err)
		}
		req.Status = domain.KYCStatusApproved
		req.AdminNote = adminNote
		approved = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// RejectKYC transitions a pending request to rejected with the admin note.
func (s *Store) RejectKYC(ctx context.Context, requestID uuid.UUID, adminNote string) (*models.KYCRequest, error) {
	var rejected *models.KYCRequest
	err := s.RunInTx(ctx, func(q *Queries) error {
		req, err := q.GetKYCRequestForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrKYCRequestNotFound
			}
			return fmt.Errorf("lock kyc request: %w", err)
		}
		if req.Status != domain.KYCStatusPending {
			return models.ErrRequestNotPending
		}
		rows, err := q.UpdateKYCRequestStatus(ctx, requestID, domain.KYCStatusRejected, adminNote)
		if err != nil {
			return fmt.Errorf("reject kyc request: %w", err)
		}
		if err := requireExactlyOne(rows, "reject kyc request"); err != nil {
			return err
		}
		req.Status = domain.KYCStatusRejected
		req.AdminNote = adminNote
		rejected = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// InsertVirtualAccountIdempotent inserts the account row; losing the unique
// race is the idempotent success path, returning whichever row won.
func (s *Store) InsertVirtualAccountIdempotent(ctx context.Context, va *models.VirtualAccount) (*models.VirtualAccount, error) {
	rows, err := s.queries.InsertVirtualAccount(ctx, va)
	if err != nil {
		return nil, fmt.Errorf("insert virtual account: %w", err)
	}
	if rows == 1 {
		return va, nil
	}
	existing, err := s.queries.GetVirtualAccountByUser(ctx, va.UserID)
	if err != nil {
		return nil, fmt.Errorf("load existing virtual account: %w", err)
	}
	return existing, nil
}

// CreditDeposit credits a wallet for an inbound bank transfer and records the
// deposit transaction, idempotent on the partner transfer reference.
func (s *Store) CreditDeposit(ctx context.Context, accountNumber string, amountKobo int64, reference, narration string) (*models.Transaction, error) {
	existing, err := s.queries.GetTransactionByReference(ctx, domain.TxTypeDeposit, reference)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check deposit idempotency: %w", err)
	}

	va, err := s.queries.GetVirtualAccountByNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("resolve virtual account: %w", err)
	}

	txn := &models.Transaction{
		ID:          uuid.New(),
		UserID:      va.UserID,
		Type:        domain.TxTypeDeposit,
		AmountKobo:  amountKobo,
		Status:      domain.TxStatusPending,
		Description: narration,
	}
	err = s.RunInTx(ctx, func(q *Queries) error {
		if err := q.CreateTransaction(ctx, txn); err != nil {
			return fmt.Errorf("create deposit transaction: %w", err)
		}
		rows, err := q.CreditProfileBalance(ctx, va.UserID, amountKobo)
		if err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}
		if err := requireExactlyOne(rows, "credit deposit balance"); err != nil {
			return err
		}
		rows, err = q.FinalizeTransaction(ctx, txn.ID, domain.TxStatusSuccess, &reference, narration)
		if err != nil {
			return fmt.Errorf("finalize deposit: %w", err)
		}
		return requireExactlyOne(rows, "finalize deposit")
	})
	if err != nil {
		return nil, err
	}
	txn.Status = domain.TxStatusSuccess
	txn.Reference = &reference
	return txn, nil
}

// Single-row reads and writes delegate straight to the query set.

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := s.queries.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) CreateProfile(ctx context.Context, p *models.Profile) error {
	return s.queries.CreateProfile(ctx, p)
}

func (s *Store) ListProfiles(ctx context.Context, limit, offset int32) ([]models.Profile, error) {
	return s.queries.ListProfiles(ctx, limit, offset)
}

func (s *Store) SetProfileStatus(ctx context.Context, id uuid.UUID, status string) error {
	rows, err := s.queries.SetProfileStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrProfileNotFound
	}
	return requireExactlyOne(rows, "set profile status")
}

func (s *Store) SetProfileBVN(ctx context.Context, id uuid.UUID, bvn string) error {
	rows, err := s.queries.SetProfileBVN(ctx, id, bvn)
	if err != nil {
		return err
	}
	return requireExactlyOne(rows, "set profile bvn")
}

func (s *Store) CreateKYCRequest(ctx context.Context, k *models.KYCRequest) error {
	return s.queries.CreateKYCRequest(ctx, k)
}

func (s *Store) GetKYCRequest(ctx context.Context, id uuid.UUID) (*models.KYCRequest, error) {
	k, err := s.queries.GetKYCRequest(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrKYCRequestNotFound
		}
		return nil, err
	}
	return k, nil
}

func (s *Store) ListKYCRequestsByStatus(ctx context.Context, status string, limit, offset int32) ([]models.KYCRequest, error) {
	return s.queries.ListKYCRequestsByStatus(ctx, status, limit, offset)
}

func (s *Store) GetLatestKYCNoteByDocType(ctx context.Context, userID uuid.UUID, documentType string) (string, error) {
	note, err := s.queries.GetLatestKYCNoteByDocType(ctx, userID, documentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return note, nil
}

func (s *Store) GetVirtualAccountByUser(ctx context.Context, userID uuid.UUID) (*models.VirtualAccount, error) {
	va, err := s.queries.GetVirtualAccountByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		return nil, err
	}
	return va, nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	t, err := s.queries.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.Transaction, error) {
	return s.queries.ListTransactionsByUser(ctx, userID, limit, offset)
}

func (s *Store) ListContacts(ctx context.Context, channel string, adminsOnly bool) ([]models.Contact, error) {
	return s.queries.ListContacts(ctx, channel, adminsOnly)
}

func (s *Store) InsertCommunicationLog(ctx context.Context, l *models.CommunicationLog) error {
	return s.queries.InsertCommunicationLog(ctx, l)
}

func (s *Store) CreateBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	return s.queries.CreateBeneficiary(ctx, b)
}

func (s *Store) ListBeneficiaries(ctx context.Context, userID uuid.UUID) ([]models.Beneficiary, error) {
	return s.queries.ListBeneficiaries(ctx, userID)
}

func (s *Store) ClaimOutboxEvents(ctx context.Context, batchSize int32, staleAfter time.Duration) ([]models.OutboxEvent, error) {
	return s.queries.ClaimOutboxEvents(ctx, batchSize, staleAfter)
}

func (s *Store) MarkOutboxDispatched(ctx context.Context, id int64) error {
	return s.queries.MarkOutboxDispatched(ctx, id)
}

func (s *Store) MarkOutboxFailed(ctx context.Context, id int64, retryAfter time.Duration, lastError string) error {
	return s.queries.MarkOutboxFailed(ctx, id, retryAfter, lastError)
}

func (s *Store) MarkOutboxParked(ctx context.Context, id int64, reason string) error {
	return s.queries.MarkOutboxParked(ctx, id, reason)
}

// ExpireStalePending fails purchase transactions pending past the cutoff and
// refunds any up-front debit, returning the expired rows.
func (s *Store) ExpireStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]models.Transaction, error) {
	var expired []models.Transaction
	err := s.RunInTx(ctx, func(q *Queries) error {
		stale, err := q.GetStalePendingTransactions(ctx, cutoff, limit)
		if err != nil {
			return fmt.Errorf("load stale pending transactions: %w", err)
		}
		for _, txn := range stale {
			rows, err := q.FinalizeTransaction(ctx, txn.ID, domain.TxStatusFailed, nil, "expired: no provider confirmation")
			if err != nil {
				return fmt.Errorf("expire transaction %s: %w", txn.ID, err)
			}
			if err := requireExactlyOne(rows, "expire transaction"); err != nil {
				return err
			}
			if _, refundable := debitedTxTypes[txn.Type]; refundable {
				rows, err := q.CreditProfileBalance(ctx, txn.UserID, txn.AmountKobo)
				if err != nil {
					return fmt.Errorf("refund expired transaction %s: %w", txn.ID, err)
				}
				if err := requireExactlyOne(rows, "refund expired transaction"); err != nil {
					return err
				}
			}
			txn.Status = domain.TxStatusFailed
			expired = append(expired, txn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}
