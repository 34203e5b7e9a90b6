package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/padimoney/padimoney-backend/internal/service"
)

// KYCHandler exposes KYC submission and the admin review queue.
type KYCHandler struct {
	kycSvc *service.KYCService
}

func NewKYCHandler(kycSvc *service.KYCService) *KYCHandler {
	return &KYCHandler{kycSvc: kycSvc}
}

type submitKYCRequest struct {
	DocumentType string `json:"document_type" validate:"required"`
	BVN          string `json:"bvn" validate:"omitempty,len=11,numeric"`
	Note         string `json:"note" validate:"max=2000"`
}

// Submit handles POST /v1/kyc/requests
func (h *KYCHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", err.Error())
		return
	}

	var req submitKYCRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	kyc, err := h.kycSvc.Submit(r.Context(), userID, req.DocumentType, req.Note, req.BVN)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, kyc)
}

type reviewKYCRequest struct {
	Action    string `json:"action" validate:"required,oneof=approve reject"`
	AdminNote string `json:"admin_note" validate:"max=2000"`
}

// Review handles POST /v1/kyc/requests/{id}/review (admin only).
func (h *KYCHandler) Review(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid request id")
		return
	}

	var req reviewKYCRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	kyc, err := h.kycSvc.Review(r.Context(), requestID, req.Action, req.AdminNote)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, kyc)
}

// Get handles GET /v1/kyc/requests/{id} (admin only).
func (h *KYCHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid request id")
		return
	}

	kyc, err := h.kycSvc.Get(r.Context(), requestID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, kyc)
}

// List handles GET /v1/kyc/requests?status=pending&limit=50&offset=0 (admin only).
func (h *KYCHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)

	requests, err := h.kycSvc.List(r.Context(), status, limit, offset)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

func queryInt32(r *http.Request, key string, def int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return def
	}
	return int32(n)
}
