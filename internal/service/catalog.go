package service

import (
	"context"
	"fmt"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
	"github.com/padimoney/padimoney-backend/internal/provider"
)

// DefaultAssets are the crypto assets quoted on the rates screen.
var DefaultAssets = []string{"bitcoin", "ethereum", "tether", "solana", "binancecoin"}

// CatalogService serves the read-only product catalogs: data plans, exam
// pin prices and crypto rates.
type CatalogService struct {
	data  provider.DataProvider
	epin  provider.EpinProvider
	rates provider.RateSource
}

func NewCatalogService(data provider.DataProvider, epin provider.EpinProvider, rates provider.RateSource) *CatalogService {
	return &CatalogService{
		data:  data,
		epin:  epin,
		rates: rates,
	}
}

func (s *CatalogService) GetPlans(ctx context.Context, network string) ([]models.DataPlan, error) {
	if !domain.Carrier(network).Valid() {
		return nil, models.ErrInvalidCarrier
	}
	plans, err := s.data.GetPlans(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s plans: %v", models.ErrProviderUnavailable, network, err)
	}
	return plans, nil
}

func (s *CatalogService) GetExamPrices(ctx context.Context) ([]models.ExamPrice, error) {
	prices, err := s.epin.GetExamPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load exam prices: %v", models.ErrProviderUnavailable, err)
	}
	return prices, nil
}

func (s *CatalogService) GetRates(ctx context.Context, ids []string) ([]models.CryptoRate, error) {
	if len(ids) == 0 {
		ids = DefaultAssets
	}
	rates, err := s.rates.GetRates(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load crypto rates: %v", models.ErrProviderUnavailable, err)
	}
	return rates, nil
}
