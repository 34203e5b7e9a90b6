package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/service"
)

const signatureHeader = "X-Webhook-Signature"

// WebhookHandler receives bank partner notifications. The partner signs the
// raw body with HMAC-SHA256; an unverifiable signature is rejected before the
// payload is even parsed.
type WebhookHandler struct {
	depositSvc *service.DepositService
	hmacKey    []byte
	skipSig    bool
}

func NewWebhookHandler(depositSvc *service.DepositService, hmacKey string, skipSignature bool) *WebhookHandler {
	return &WebhookHandler{
		depositSvc: depositSvc,
		hmacKey:    []byte(hmacKey),
		skipSig:    skipSignature,
	}
}

type bankCreditPayload struct {
	AccountNumber string `json:"account_number"`
	Amount        int64  `json:"amount"`
	Reference     string `json:"reference"`
	Narration     string `json:"narration"`
}

// HandleBankCredit handles POST /v1/webhooks/bank
func (h *WebhookHandler) HandleBankCredit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "webhook/unreadable-body", "failed to read request body")
		return
	}

	if !h.verifySignature(body, r.Header.Get(signatureHeader)) {
		zap.L().Warn("bank webhook signature rejected")
		RespondError(w, r, http.StatusUnauthorized, "webhook/invalid-signature", "invalid signature")
		return
	}

	var payload bankCreditPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		RespondError(w, r, http.StatusBadRequest, "webhook/invalid-payload", "invalid payload")
		return
	}

	txn, err := h.depositSvc.HandleBankCredit(r.Context(), service.BankCredit{
		AccountNumber: strings.TrimSpace(payload.AccountNumber),
		AmountKobo:    payload.Amount,
		Reference:     strings.TrimSpace(payload.Reference),
		Narration:     payload.Narration,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"transaction_id": txn.ID,
		"status":         txn.Status,
	})
}

// verifySignature compares the hex HMAC-SHA256 of the body against the header
// value in constant time.
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.skipSig {
		return true
	}
	if signature == "" || len(h.hmacKey) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, h.hmacKey)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
