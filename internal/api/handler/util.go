package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/padimoney/padimoney-backend/internal/api/middleware"
	"github.com/padimoney/padimoney-backend/internal/api/problem"
	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

// decodeAndValidate decodes the JSON body into dst and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/validation-failed", err.Error())
		return false
	}
	return true
}

func requestActor(r *http.Request) (uuid.UUID, bool, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, false, errors.New("missing user in auth context")
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, false, errors.New("invalid user_id in auth context")
	}

	role := middleware.UserRoleFromContext(r.Context())
	isAdmin := role == domain.RoleAdmin || role == domain.RoleSuperAdmin
	return actorID, isAdmin, nil
}

// respondDomainError maps sentinel service errors onto the strict status-code
// discipline; anything unmapped is a 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrProfileNotFound):
		RespondError(w, r, http.StatusNotFound, "profile/not-found", err.Error())
	case errors.Is(err, models.ErrProfileSuspended):
		RespondError(w, r, http.StatusForbidden, "profile/suspended", err.Error())
	case errors.Is(err, models.ErrInsufficientFunds):
		RespondError(w, r, http.StatusBadRequest, "purchase/insufficient-funds", err.Error())
	case errors.Is(err, models.ErrPurchaseDeclined):
		RespondError(w, r, http.StatusBadRequest, "purchase/provider-declined", err.Error())
	case errors.Is(err, models.ErrProviderUnavailable):
		RespondError(w, r, http.StatusBadGateway, "provider/unavailable", err.Error())
	case errors.Is(err, models.ErrInvalidCarrier):
		RespondError(w, r, http.StatusBadRequest, "purchase/unknown-network", err.Error())
	case errors.Is(err, models.ErrUnknownAsset):
		RespondError(w, r, http.StatusBadRequest, "purchase/unknown-asset", err.Error())
	case errors.Is(err, models.ErrTransactionNotFound):
		RespondError(w, r, http.StatusNotFound, "transaction/not-found", err.Error())
	case errors.Is(err, models.ErrKYCRequestNotFound):
		RespondError(w, r, http.StatusNotFound, "kyc/not-found", err.Error())
	case errors.Is(err, models.ErrRequestNotPending):
		RespondError(w, r, http.StatusConflict, "kyc/not-pending", err.Error())
	case errors.Is(err, models.ErrKYCTierTooLow):
		RespondError(w, r, http.StatusUnprocessableEntity, "account/tier-too-low", err.Error())
	case errors.Is(err, models.ErrBVNRequired):
		RespondError(w, r, http.StatusUnprocessableEntity, "account/bvn-required", err.Error())
	case errors.Is(err, models.ErrInvalidRequest):
		RespondError(w, r, http.StatusBadRequest, "request/invalid", err.Error())
	case errors.Is(err, models.ErrAccountNotFound):
		RespondError(w, r, http.StatusNotFound, "account/not-found", err.Error())
	default:
		if status, problemType, message, ok := mapDBError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "unexpected server error")
	}
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}
