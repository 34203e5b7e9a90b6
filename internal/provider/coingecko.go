package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/models"
)

const rateCacheTTL = 60 * time.Second

// CoinGecko quotes crypto spot prices. Quotes are cached in redis briefly so
// purchase bursts do not hammer the free tier.
type CoinGecko struct {
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
	log        *zap.Logger
}

func NewCoinGecko(baseURL string, cache *redis.Client, log *zap.Logger) *CoinGecko {
	return &CoinGecko{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache: cache,
		log:   log,
	}
}

func (c *CoinGecko) GetRates(ctx context.Context, ids []string) ([]models.CryptoRate, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	cacheKey := "crypto:rates:" + strings.Join(sorted, ",")

	if cached, err := c.cache.Get(ctx, cacheKey).Bytes(); err == nil {
		var rates []models.CryptoRate
		if err := json.Unmarshal(cached, &rates); err == nil {
			return rates, nil
		}
	}

	params := url.Values{}
	params.Set("ids", strings.Join(sorted, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/price?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch crypto rates: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read rates response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	var decoded map[string]struct {
		USD          decimal.Decimal `json:"usd"`
		USD24hChange decimal.Decimal `json:"usd_24h_change"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}

	rates := make([]models.CryptoRate, 0, len(sorted))
	for _, id := range sorted {
		quote, ok := decoded[id]
		if !ok {
			continue
		}
		rates = append(rates, models.CryptoRate{
			ID:           id,
			USD:          quote.USD,
			USD24hChange: quote.USD24hChange,
		})
	}

	if encoded, err := json.Marshal(rates); err == nil {
		if err := c.cache.Set(ctx, cacheKey, encoded, rateCacheTTL).Err(); err != nil {
			c.log.Debug("rate cache write failed", zap.Error(err))
		}
	}
	return rates, nil
}

// GetRate returns the USD spot price for a single asset.
func (c *CoinGecko) GetRate(ctx context.Context, id string) (decimal.Decimal, error) {
	rates, err := c.GetRates(ctx, []string{id})
	if err != nil {
		return decimal.Zero, err
	}
	if len(rates) == 0 {
		return decimal.Zero, fmt.Errorf("no rate for asset %q", id)
	}
	return rates[0].USD, nil
}
