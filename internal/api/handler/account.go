package handler

import (
	"net/http"

	"github.com/padimoney/padimoney-backend/internal/service"
)

// AccountHandler exposes virtual account provisioning for the caller.
type AccountHandler struct {
	accountSvc *service.AccountService
}

func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// Issue handles POST /v1/virtual-accounts. Provisioning is idempotent: a
// caller that already has an account gets it back with 200.
func (h *AccountHandler) Issue(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", err.Error())
		return
	}

	account, err := h.accountSvc.Issue(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, account)
}

// Get handles GET /v1/virtual-accounts/me
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", err.Error())
		return
	}

	account, err := h.accountSvc.Get(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, account)
}
