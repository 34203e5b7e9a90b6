package handler

import (
	"net/http"

	"github.com/padimoney/padimoney-backend/internal/service"
)

// CommunicationHandler exposes the admin bulk messaging endpoint.
type CommunicationHandler struct {
	dispatchSvc *service.DispatchService
}

func NewCommunicationHandler(dispatchSvc *service.DispatchService) *CommunicationHandler {
	return &CommunicationHandler{dispatchSvc: dispatchSvc}
}

type dispatchRequest struct {
	Channel       string `json:"channel" validate:"required,oneof=email sms"`
	RecipientMode string `json:"recipient_mode" validate:"required,oneof=single all admins"`
	Recipient     string `json:"recipient"`
	Subject       string `json:"subject" validate:"max=255"`
	Body          string `json:"body" validate:"required"`
}

// Dispatch handles POST /v1/communications (admin only). The response reports
// per-recipient outcomes; a partial failure still returns 200.
func (h *CommunicationHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	report, err := h.dispatchSvc.Dispatch(r.Context(), service.DispatchRequest{
		Channel:       req.Channel,
		RecipientMode: req.RecipientMode,
		Recipient:     req.Recipient,
		Subject:       req.Subject,
		Body:          req.Body,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, report)
}
