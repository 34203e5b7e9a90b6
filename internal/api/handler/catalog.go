package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/padimoney/padimoney-backend/internal/service"
)

// CatalogHandler serves the data plan, exam price and crypto rate catalogs.
type CatalogHandler struct {
	catalogSvc *service.CatalogService
}

func NewCatalogHandler(catalogSvc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// GetPlans handles GET /v1/plans/{network}
func (h *CatalogHandler) GetPlans(w http.ResponseWriter, r *http.Request) {
	network := strings.ToLower(chi.URLParam(r, "network"))
	plans, err := h.catalogSvc.GetPlans(r.Context(), network)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

// GetExamPrices handles GET /v1/exams/prices
func (h *CatalogHandler) GetExamPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.catalogSvc.GetExamPrices(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"prices": prices})
}

// GetRates handles GET /v1/crypto/rates?ids=bitcoin,ethereum
func (h *CatalogHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, strings.ToLower(id))
			}
		}
	}
	rates, err := h.catalogSvc.GetRates(r.Context(), ids)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"rates": rates})
}
