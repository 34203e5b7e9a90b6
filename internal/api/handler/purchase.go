package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/padimoney/padimoney-backend/internal/service"
)

// PurchaseHandler handles bill-payment purchase requests.
type PurchaseHandler struct {
	purchaseSvc *service.PurchaseService
}

func NewPurchaseHandler(purchaseSvc *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseSvc: purchaseSvc}
}

type airtimeRequest struct {
	Network    string `json:"network"`
	Phone      string `json:"phone" validate:"required,min=7"`
	AmountKobo int64  `json:"amount_kobo" validate:"required,gt=0"`
}

// PurchaseAirtime handles POST /v1/purchases/airtime
func (h *PurchaseHandler) PurchaseAirtime(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	var req airtimeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.purchaseSvc.PurchaseAirtime(r.Context(), actorID, service.AirtimeParams{
		Network:    req.Network,
		Phone:      req.Phone,
		AmountKobo: req.AmountKobo,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, res)
}

type dataRequest struct {
	Network    string `json:"network" validate:"required"`
	Phone      string `json:"phone" validate:"required,min=7"`
	PlanID     string `json:"plan_id" validate:"required"`
	AmountKobo int64  `json:"amount_kobo" validate:"required,gt=0"`
}

// PurchaseData handles POST /v1/purchases/data
func (h *PurchaseHandler) PurchaseData(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	var req dataRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.purchaseSvc.PurchaseData(r.Context(), actorID, service.DataParams{
		Network:    req.Network,
		Phone:      req.Phone,
		PlanID:     req.PlanID,
		AmountKobo: req.AmountKobo,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, res)
}

type epinRequest struct {
	ExamType   string `json:"exam_type" validate:"required"`
	Quantity   int    `json:"quantity"`
	AmountKobo int64  `json:"amount_kobo" validate:"required,gt=0"`
}

// PurchaseEpin handles POST /v1/purchases/epin
func (h *PurchaseHandler) PurchaseEpin(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	var req epinRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.purchaseSvc.PurchaseEpin(r.Context(), actorID, service.EpinParams{
		ExamType:   req.ExamType,
		Quantity:   req.Quantity,
		AmountKobo: req.AmountKobo,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, res)
}

type cryptoRequest struct {
	Side     string `json:"side" validate:"required,oneof=buy sell"`
	AssetID  string `json:"asset_id" validate:"required"`
	Quantity string `json:"quantity" validate:"required"`
}

// PurchaseCrypto handles POST /v1/purchases/crypto
func (h *PurchaseHandler) PurchaseCrypto(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	var req cryptoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil || quantity.Sign() <= 0 {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-quantity", "quantity must be a positive decimal")
		return
	}

	params := service.CryptoParams{AssetID: req.AssetID, Quantity: quantity}
	var res *service.PurchaseResult
	if req.Side == "buy" {
		res, err = h.purchaseSvc.BuyCrypto(r.Context(), actorID, params)
	} else {
		res, err = h.purchaseSvc.SellCrypto(r.Context(), actorID, params)
	}
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, res)
}
