package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
	"github.com/padimoney/padimoney-backend/internal/notify"
	"github.com/padimoney/padimoney-backend/internal/observability"
)

// DispatchStore resolves recipient sets and records send outcomes.
type DispatchStore interface {
	ListContacts(ctx context.Context, channel string, adminsOnly bool) ([]models.Contact, error)
	InsertCommunicationLog(ctx context.Context, l *models.CommunicationLog) error
}

type DispatchRequest struct {
	Channel       string
	RecipientMode string
	Recipient     string
	Subject       string
	Body          string
}

type RecipientResult struct {
	Recipient string `json:"recipient"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

type DispatchReport struct {
	Sent    int               `json:"sent"`
	Failed  int               `json:"failed"`
	Results []RecipientResult `json:"results"`
}

type DispatchService struct {
	store     DispatchStore
	email     notify.EmailSender
	sms       notify.SMSSender
	sendDelay time.Duration
	log       *zap.Logger
}

func NewDispatchService(store DispatchStore, email notify.EmailSender, sms notify.SMSSender, sendDelay time.Duration, log *zap.Logger) *DispatchService {
	return &DispatchService{
		store:     store,
		email:     email,
		sms:       sms,
		sendDelay: sendDelay,
		log:       log,
	}
}

// Dispatch fans the message out to the resolved recipient set. Sends run
// sequentially with a short delay to stay inside provider rate limits; one
// recipient's failure never aborts the batch.
func (s *DispatchService) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchReport, error) {
	if req.Body == "" {
		return nil, fmt.Errorf("%w: body is required", models.ErrInvalidRequest)
	}
	if req.Channel != domain.ChannelEmail && req.Channel != domain.ChannelSMS {
		return nil, fmt.Errorf("%w: unknown channel %q", models.ErrInvalidRequest, req.Channel)
	}

	recipients, err := s.resolveRecipients(ctx, req)
	if err != nil {
		return nil, err
	}

	report := &DispatchReport{}
	for i, addr := range recipients {
		if i > 0 && s.sendDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(s.sendDelay):
			}
		}

		sendErr := s.send(ctx, req, addr)
		result := RecipientResult{Recipient: addr, Sent: sendErr == nil}
		if sendErr != nil {
			result.Error = sendErr.Error()
			report.Failed++
			observability.IncrementDispatch(req.Channel, "failed")
			s.log.Warn("communication send failed",
				zap.String("channel", req.Channel),
				zap.String("recipient", addr),
				zap.Error(sendErr))
		} else {
			report.Sent++
			observability.IncrementDispatch(req.Channel, "sent")
		}
		report.Results = append(report.Results, result)
		s.record(ctx, req, result)
	}
	return report, nil
}

func (s *DispatchService) resolveRecipients(ctx context.Context, req DispatchRequest) ([]string, error) {
	switch req.RecipientMode {
	case domain.RecipientModeSingle:
		if req.Recipient == "" {
			return nil, fmt.Errorf("%w: recipient is required for single mode", models.ErrInvalidRequest)
		}
		return []string{req.Recipient}, nil
	case domain.RecipientModeAll, domain.RecipientModeAdmins:
		contacts, err := s.store.ListContacts(ctx, req.Channel, req.RecipientMode == domain.RecipientModeAdmins)
		if err != nil {
			return nil, fmt.Errorf("resolve recipients: %w", err)
		}
		addrs := make([]string, 0, len(contacts))
		for _, c := range contacts {
			if c.Address != "" {
				addrs = append(addrs, c.Address)
			}
		}
		return addrs, nil
	default:
		return nil, fmt.Errorf("%w: unknown recipient mode %q", models.ErrInvalidRequest, req.RecipientMode)
	}
}

func (s *DispatchService) send(ctx context.Context, req DispatchRequest, addr string) error {
	if req.Channel == domain.ChannelEmail {
		return s.email.SendEmail(ctx, addr, req.Subject, req.Body)
	}
	return s.sms.SendSMS(ctx, addr, req.Body)
}

func (s *DispatchService) record(ctx context.Context, req DispatchRequest, result RecipientResult) {
	status := "sent"
	if !result.Sent {
		status = "failed"
	}
	err := s.store.InsertCommunicationLog(ctx, &models.CommunicationLog{
		ID:        uuid.New(),
		Channel:   req.Channel,
		Recipient: result.Recipient,
		Subject:   req.Subject,
		Body:      req.Body,
		Status:    status,
		Error:     result.Error,
	})
	if err != nil {
		s.log.Warn("write communication log", zap.Error(err))
	}
}
