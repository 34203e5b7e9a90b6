package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/padimoney/padimoney-backend/internal/service"
)

// ProfileHandler serves the caller's profile, transaction history and
// saved beneficiaries.
type ProfileHandler struct {
	profileSvc *service.ProfileService
}

func NewProfileHandler(profileSvc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

type registerRequest struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=7"`
}

// Register handles POST /v1/profiles (public signup).
func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.profileSvc.Register(r.Context(), req.FullName, req.Email, req.Phone)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, profile)
}

// List handles GET /v1/profiles (admin only).
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)

	profiles, err := h.profileSvc.List(r.Context(), limit, offset)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

// Suspend handles POST /v1/profiles/{id}/suspend (admin only).
func (h *ProfileHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid profile id")
		return
	}

	if err := h.profileSvc.Suspend(r.Context(), userID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "suspended"})
}

// Get handles GET /v1/profiles/me
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", err.Error())
		return
	}

	profile, err := h.profileSvc.Get(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, profile)
}

// ListTransactions handles GET /v1/transactions?limit=50&offset=0
func (h *ProfileHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", err.Error())
		return
	}

	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)

	txns, err := h.profileSvc.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"transactions": txns})
}

// GetTransaction handles GET /v1/transactions/{id}. A transaction belonging
// to another user reads as not found.
func (h *ProfileHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", err.Error())
		return
	}

	txID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "invalid transaction id")
		return
	}

	txn, err := h.profileSvc.GetTransaction(r.Context(), userID, txID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, txn)
}

type addBeneficiaryRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"required"`
}

// AddBeneficiary handles POST /v1/beneficiaries
func (h *ProfileHandler) AddBeneficiary(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", err.Error())
		return
	}

	var req addBeneficiaryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	beneficiary, err := h.profileSvc.AddBeneficiary(r.Context(), userID, req.Name, req.Phone)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, beneficiary)
}

// ListBeneficiaries handles GET /v1/beneficiaries
func (h *ProfileHandler) ListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", err.Error())
		return
	}

	beneficiaries, err := h.profileSvc.ListBeneficiaries(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"beneficiaries": beneficiaries})
}
