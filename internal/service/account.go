package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
	"github.com/padimoney/padimoney-backend/internal/notify"
	"github.com/padimoney/padimoney-backend/internal/observability"
	"github.com/padimoney/padimoney-backend/internal/provider"
)

var bvnPattern = regexp.MustCompile(`\b(\d{11})\b`)

// AccountStore is the slice of the store the issuer needs. Inserts are
// idempotent on user_id: losing the unique race returns the winning row.
type AccountStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	SetProfileBVN(ctx context.Context, id uuid.UUID, bvn string) error
	GetLatestKYCNoteByDocType(ctx context.Context, userID uuid.UUID, documentType string) (string, error)
	GetVirtualAccountByUser(ctx context.Context, userID uuid.UUID) (*models.VirtualAccount, error)
	InsertVirtualAccountIdempotent(ctx context.Context, va *models.VirtualAccount) (*models.VirtualAccount, error)
}

type AccountService struct {
	store    AccountStore
	bank     provider.BankingPartner
	identity provider.IdentityBureau
	email    notify.EmailSender
	log      *zap.Logger
}

func NewAccountService(store AccountStore, bank provider.BankingPartner, identity provider.IdentityBureau, email notify.EmailSender, log *zap.Logger) *AccountService {
	return &AccountService{
		store:    store,
		bank:     bank,
		identity: identity,
		email:    email,
		log:      log,
	}
}

// Issue provisions a dedicated virtual account for the user. Calling it again
// for a user that already has one returns the existing account unchanged.
func (s *AccountService) Issue(ctx context.Context, userID uuid.UUID) (*models.VirtualAccount, error) {
	existing, err := s.store.GetVirtualAccountByUser(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrAccountNotFound) {
		return nil, fmt.Errorf("check existing account: %w", err)
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.KYCTier < domain.VirtualAccountMinTier {
		observability.IncrementProvisioning("tier_too_low")
		return nil, models.ErrKYCTierTooLow
	}

	bvn, err := s.resolveBVN(ctx, profile)
	if err != nil {
		if errors.Is(err, models.ErrBVNRequired) {
			observability.IncrementProvisioning("bvn_required")
		}
		return nil, err
	}

	firstName, lastName := splitFullName(profile.FullName)
	details, err := s.bank.CreateVirtualAccount(ctx, provider.VirtualAccountRequest{
		Email:       profile.Email,
		BVN:         bvn,
		FirstName:   firstName,
		LastName:    lastName,
		PhoneNumber: domain.NormalizeMSISDN(profile.Phone),
		Narration:   profile.FullName,
		TxRef:       "va-" + userID.String(),
	})
	if err != nil {
		observability.IncrementProvisioning("partner_error")
		return nil, fmt.Errorf("provision virtual account: %w", err)
	}

	meta, _ := json.Marshal(map[string]string{"order_ref": details.OrderRef})
	account, err := s.store.InsertVirtualAccountIdempotent(ctx, &models.VirtualAccount{
		ID:            uuid.New(),
		UserID:        userID,
		Provider:      "bank_partner",
		BankName:      details.BankName,
		AccountNumber: details.AccountNumber,
		AccountName:   profile.FullName,
		Currency:      domain.DefaultCurrency,
		Metadata:      meta,
	})
	if err != nil {
		return nil, err
	}
	observability.IncrementProvisioning("issued")

	if profile.Email != "" {
		body := fmt.Sprintf("<p>Your dedicated account is ready: %s, %s (%s).</p>",
			account.AccountNumber, account.BankName, account.AccountName)
		if err := s.email.SendEmail(ctx, profile.Email, "Your virtual account is ready", body); err != nil {
			s.log.Warn("send account notification",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
	}
	return account, nil
}

// resolveBVN prefers the structured profile field. When absent it falls back
// to mining the latest bvn-document admin note, a recovery path for accounts
// created before the BVN column existed, and writes the find back to the
// profile.
func (s *AccountService) resolveBVN(ctx context.Context, profile *models.Profile) (string, error) {
	if profile.BVN != nil && *profile.BVN != "" {
		return *profile.BVN, nil
	}

	note, err := s.store.GetLatestKYCNoteByDocType(ctx, profile.ID, domain.KYCDocumentBVN)
	if err != nil {
		return "", fmt.Errorf("load kyc note: %w", err)
	}
	match := bvnPattern.FindString(note)
	if match == "" {
		return "", models.ErrBVNRequired
	}

	if s.identity != nil {
		check, err := s.identity.VerifyBVN(ctx, match)
		if err != nil {
			s.log.Warn("bvn verification unavailable, keeping recovered value",
				zap.String("user_id", profile.ID.String()),
				zap.Error(err))
		} else if !check.IsValid {
			return "", models.ErrBVNRequired
		}
	}

	if err := s.store.SetProfileBVN(ctx, profile.ID, match); err != nil {
		return "", fmt.Errorf("write back recovered bvn: %w", err)
	}
	s.log.Info("recovered bvn from kyc history", zap.String("user_id", profile.ID.String()))
	return match, nil
}

func (s *AccountService) Get(ctx context.Context, userID uuid.UUID) (*models.VirtualAccount, error) {
	return s.store.GetVirtualAccountByUser(ctx, userID)
}

func splitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
