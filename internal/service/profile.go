package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
)

type ProfileStore interface {
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	ListProfiles(ctx context.Context, limit, offset int32) ([]models.Profile, error)
	SetProfileStatus(ctx context.Context, id uuid.UUID, status string) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.Transaction, error)
	CreateBeneficiary(ctx context.Context, b *models.Beneficiary) error
	ListBeneficiaries(ctx context.Context, userID uuid.UUID) ([]models.Beneficiary, error)
}

type ProfileService struct {
	store ProfileStore
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// Register creates a fresh profile at tier zero with an empty balance.
// Token issuance happens at the identity edge, not here.
func (s *ProfileService) Register(ctx context.Context, fullName, email, phone string) (*models.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", models.ErrInvalidRequest)
	}
	normalized := domain.NormalizeMSISDN(phone)
	if normalized == "" {
		return nil, fmt.Errorf("%w: phone is required", models.ErrInvalidRequest)
	}

	p := &models.Profile{
		ID:       uuid.New(),
		FullName: fullName,
		Email:    email,
		Phone:    normalized,
		Status:   domain.ProfileStatusActive,
		Role:     domain.RoleUser,
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.store.GetProfile(ctx, userID)
}

// List pages all profiles for the admin surface.
func (s *ProfileService) List(ctx context.Context, limit, offset int32) ([]models.Profile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListProfiles(ctx, limit, offset)
}

// Suspend blocks a profile from purchasing until reactivated.
func (s *ProfileService) Suspend(ctx context.Context, userID uuid.UUID) error {
	return s.store.SetProfileStatus(ctx, userID, domain.ProfileStatusSuspended)
}

// GetTransaction returns the transaction only to its owner.
func (s *ProfileService) GetTransaction(ctx context.Context, userID, txID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, models.ErrTransactionNotFound
	}
	return txn, nil
}

func (s *ProfileService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListTransactionsByUser(ctx, userID, limit, offset)
}

// AddBeneficiary saves a telco recipient, re-deriving the carrier from the
// phone prefix rather than trusting the caller's value.
func (s *ProfileService) AddBeneficiary(ctx context.Context, userID uuid.UUID, name, phone string) (*models.Beneficiary, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidRequest)
	}
	carrier, ok := domain.DetectCarrier(phone)
	if !ok {
		return nil, models.ErrInvalidCarrier
	}
	b := &models.Beneficiary{
		ID:      uuid.New(),
		UserID:  userID,
		Name:    name,
		Phone:   phone,
		Network: string(carrier),
	}
	if err := s.store.CreateBeneficiary(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *ProfileService) ListBeneficiaries(ctx context.Context, userID uuid.UUID) ([]models.Beneficiary, error) {
	return s.store.ListBeneficiaries(ctx, userID)
}
