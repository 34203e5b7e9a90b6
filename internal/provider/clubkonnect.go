package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/models"
)

// ClubKonnect is the telco aggregator behind airtime, data bundle and exam
// e-pin purchases. The API is query-string based and reports outcomes with a
// numeric statuscode plus a free-text remark.
type ClubKonnect struct {
	baseURL    string
	userID     string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClubKonnect(baseURL, userID, apiKey string, log *zap.Logger) *ClubKonnect {
	return &ClubKonnect{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

type clubKonnectResponse struct {
	StatusCode string `json:"statuscode"`
	Status     string `json:"status"`
	OrderID    string `json:"orderid"`
	Remark     string `json:"remark"`
	Msg        string `json:"msg"`
}

func (r clubKonnectResponse) accepted() bool {
	switch r.StatusCode {
	case "100", "200":
		return true
	}
	return strings.Contains(strings.ToUpper(r.Status), "ORDER_RECEIVED") ||
		strings.Contains(strings.ToUpper(r.Status), "ORDER_COMPLETED")
}

func (r clubKonnectResponse) message() string {
	if r.Remark != "" {
		return r.Remark
	}
	if r.Msg != "" {
		return r.Msg
	}
	return r.Status
}

func (c *ClubKonnect) PurchaseAirtime(ctx context.Context, p AirtimePurchase) Result {
	code, _ := domain.Carrier(p.Network).NetworkCode()
	params := url.Values{}
	params.Set("MobileNetwork", code)
	params.Set("MobileNumber", p.PhoneNumber)
	params.Set("Amount", strconv.FormatInt(domain.Kobo(p.AmountKobo).NairaUnits(), 10))
	params.Set("RequestID", p.RequestID)
	return c.order(ctx, "/APIAirtimeV1.asp", params)
}

func (c *ClubKonnect) PurchaseData(ctx context.Context, p DataPurchase) Result {
	code, _ := domain.Carrier(p.Network).NetworkCode()
	params := url.Values{}
	params.Set("MobileNetwork", code)
	params.Set("MobileNumber", p.PhoneNumber)
	params.Set("DataPlan", p.PlanID)
	params.Set("RequestID", p.RequestID)
	return c.order(ctx, "/APIDatabundleV1.asp", params)
}

func (c *ClubKonnect) PurchaseEpin(ctx context.Context, p EpinPurchase) Result {
	params := url.Values{}
	params.Set("ExamType", strings.ToUpper(p.ExamType))
	params.Set("PhoneNo", "0")
	params.Set("NoOfPins", strconv.Itoa(p.Quantity))
	params.Set("RequestID", p.RequestID)
	return c.order(ctx, "/APIWAECV1.asp", params)
}

// order submits a purchase and folds transport errors and partner declines
// into a failed Result so the caller's finalize path is uniform.
func (c *ClubKonnect) order(ctx context.Context, path string, params url.Values) Result {
	var resp clubKonnectResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		c.log.Warn("clubkonnect order failed",
			zap.String("path", path),
			zap.String("request_id", params.Get("RequestID")),
			zap.Error(err))
		return Result{Success: false, Message: "provider unreachable"}
	}
	if !resp.accepted() {
		return Result{Success: false, Message: resp.message(), ExternalRef: resp.OrderID}
	}
	return Result{
		Success:     true,
		Reference:   params.Get("RequestID"),
		Message:     resp.message(),
		ExternalRef: resp.OrderID,
	}
}

type clubKonnectPlan struct {
	PlanID   string `json:"PRODUCT_ID"`
	Name     string `json:"PRODUCT_NAME"`
	Amount   string `json:"PRODUCT_AMOUNT"`
	Validity string `json:"PRODUCT_VALIDITY"`
}

type clubKonnectPlansResponse struct {
	Networks map[string][]clubKonnectPlan `json:"MOBILE_NETWORK"`
}

func (c *ClubKonnect) GetPlans(ctx context.Context, network string) ([]models.DataPlan, error) {
	var resp clubKonnectPlansResponse
	if err := c.get(ctx, "/APIDatabundlePlansV2.asp", url.Values{}, &resp); err != nil {
		return nil, fmt.Errorf("fetch data plans: %w", err)
	}

	carrier := domain.Carrier(network)
	raw, ok := resp.Networks[strings.ToUpper(string(carrier))]
	if !ok {
		raw = resp.Networks[string(carrier)]
	}

	plans := make([]models.DataPlan, 0, len(raw))
	for _, p := range raw {
		naira, err := strconv.ParseFloat(p.Amount, 64)
		if err != nil {
			c.log.Warn("skipping plan with unparseable amount",
				zap.String("plan_id", p.PlanID),
				zap.String("amount", p.Amount))
			continue
		}
		bucket, validity := domain.ClassifyPlanDuration(p.Name, p.Validity)
		plans = append(plans, models.DataPlan{
			PlanID:    p.PlanID,
			Network:   string(carrier),
			Name:      p.Name,
			Bucket:    string(bucket),
			Validity:  validity,
			PriceKobo: int64(naira * 100),
		})
	}
	return plans, nil
}

type clubKonnectExamPrice struct {
	ExamType string `json:"PRODUCT_CODE"`
	Name     string `json:"PRODUCT_DESCRIPTION"`
	Amount   string `json:"PRODUCT_AMOUNT"`
}

type clubKonnectExamResponse struct {
	Prices []clubKonnectExamPrice `json:"EXAM_TYPE"`
}

func (c *ClubKonnect) GetExamPrices(ctx context.Context) ([]models.ExamPrice, error) {
	var resp clubKonnectExamResponse
	if err := c.get(ctx, "/APIWAECPackagesV2.asp", url.Values{}, &resp); err != nil {
		return nil, fmt.Errorf("fetch exam prices: %w", err)
	}

	prices := make([]models.ExamPrice, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		naira, err := strconv.ParseFloat(p.Amount, 64)
		if err != nil {
			continue
		}
		prices = append(prices, models.ExamPrice{
			ExamType:  strings.ToLower(p.ExamType),
			Name:      p.Name,
			PriceKobo: int64(naira * 100),
		})
	}
	return prices, nil
}

func (c *ClubKonnect) get(ctx context.Context, path string, params url.Values, target any) error {
	params.Set("UserID", c.userID)
	params.Set("APIKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
