package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
	"github.com/padimoney/padimoney-backend/internal/notify"
)

// KYCStore is the slice of the store the review pipeline needs. ApproveKYC
// must commit the status change, tier bump and provisioning event atomically.
type KYCStore interface {
	CreateKYCRequest(ctx context.Context, k *models.KYCRequest) error
	GetKYCRequest(ctx context.Context, id uuid.UUID) (*models.KYCRequest, error)
	ListKYCRequestsByStatus(ctx context.Context, status string, limit, offset int32) ([]models.KYCRequest, error)
	ApproveKYC(ctx context.Context, requestID uuid.UUID, adminNote string) (*models.KYCRequest, error)
	RejectKYC(ctx context.Context, requestID uuid.UUID, adminNote string) (*models.KYCRequest, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type KYCService struct {
	store KYCStore
	email notify.EmailSender
	log   *zap.Logger
}

func NewKYCService(store KYCStore, email notify.EmailSender, log *zap.Logger) *KYCService {
	return &KYCService{
		store: store,
		email: email,
		log:   log,
	}
}

var validDocumentTypes = map[string]struct{}{
	domain.KYCDocumentBVN:      {},
	domain.KYCDocumentIDCard:   {},
	domain.KYCDocumentPassport: {},
}

var bvnDigits = regexp.MustCompile(`^\d{11}$`)

// Submit opens a pending review request for the user's document. BVN
// submissions carry the number structurally; it is folded into the note so
// the issuer's recovery path and the audit trail both see it.
func (s *KYCService) Submit(ctx context.Context, userID uuid.UUID, documentType, note, bvn string) (*models.KYCRequest, error) {
	if _, ok := validDocumentTypes[documentType]; !ok {
		return nil, fmt.Errorf("%w: unknown document type %q", models.ErrInvalidRequest, documentType)
	}
	if documentType == domain.KYCDocumentBVN {
		if !bvnDigits.MatchString(bvn) {
			return nil, fmt.Errorf("%w: bvn must be 11 digits", models.ErrInvalidRequest)
		}
		note = strings.TrimSpace("bvn " + bvn + "\n" + note)
	} else if bvn != "" {
		return nil, fmt.Errorf("%w: bvn only accompanies a bvn document", models.ErrInvalidRequest)
	}
	if _, err := s.store.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	req := &models.KYCRequest{
		ID:           uuid.New(),
		UserID:       userID,
		DocumentType: documentType,
		Status:       domain.KYCStatusPending,
		AdminNote:    note,
	}
	if err := s.store.CreateKYCRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create kyc request: %w", err)
	}
	return req, nil
}

// Review applies an admin decision to a pending request. A request that has
// already been decided is rejected, which keeps the tier bump on approval to
// exactly one per request.
func (s *KYCService) Review(ctx context.Context, requestID uuid.UUID, action, adminNote string) (*models.KYCRequest, error) {
	switch action {
	case domain.KYCActionApprove:
		return s.approve(ctx, requestID, adminNote)
	case domain.KYCActionReject:
		return s.reject(ctx, requestID, adminNote)
	default:
		return nil, fmt.Errorf("%w: unknown review action %q", models.ErrInvalidRequest, action)
	}
}

func (s *KYCService) approve(ctx context.Context, requestID uuid.UUID, adminNote string) (*models.KYCRequest, error) {
	req, err := s.store.ApproveKYC(ctx, requestID, adminNote)
	if err != nil {
		return nil, err
	}

	// Notification is best effort; the approval and its provisioning event
	// are already committed.
	s.notifyReviewOutcome(ctx, req.UserID,
		"Your identity verification was approved",
		"<p>Your identity documents have been approved and your account tier has been upgraded.</p>")
	return req, nil
}

func (s *KYCService) reject(ctx context.Context, requestID uuid.UUID, adminNote string) (*models.KYCRequest, error) {
	req, err := s.store.RejectKYC(ctx, requestID, adminNote)
	if err != nil {
		return nil, err
	}

	body := "<p>Your identity documents could not be approved.</p>"
	if adminNote != "" {
		body = fmt.Sprintf("<p>Your identity documents could not be approved: %s</p>", adminNote)
	}
	s.notifyReviewOutcome(ctx, req.UserID, "Your identity verification was declined", body)
	return req, nil
}

func (s *KYCService) notifyReviewOutcome(ctx context.Context, userID uuid.UUID, subject, body string) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		s.log.Warn("load profile for kyc notification",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return
	}
	if profile.Email == "" {
		return
	}
	if err := s.email.SendEmail(ctx, profile.Email, subject, body); err != nil {
		s.log.Warn("send kyc review notification",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

func (s *KYCService) Get(ctx context.Context, requestID uuid.UUID) (*models.KYCRequest, error) {
	return s.store.GetKYCRequest(ctx, requestID)
}

func (s *KYCService) List(ctx context.Context, status string, limit, offset int32) ([]models.KYCRequest, error) {
	switch status {
	case domain.KYCStatusPending, domain.KYCStatusApproved, domain.KYCStatusRejected:
	case "":
		status = domain.KYCStatusPending
	default:
		return nil, fmt.Errorf("%w: unknown kyc status %q", models.ErrInvalidRequest, status)
	}
	reqs, err := s.store.ListKYCRequestsByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list kyc requests: %w", err)
	}
	return reqs, nil
}
