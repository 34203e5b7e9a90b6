package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// BankClient talks to the banking-as-a-service partner that issues dedicated
// virtual collection accounts.
type BankClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	log        *zap.Logger
}

func NewBankClient(baseURL, secretKey string, log *zap.Logger) *BankClient {
	return &BankClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

type createVirtualAccountRequest struct {
	Email       string `json:"email"`
	BVN         string `json:"bvn"`
	IsPermanent bool   `json:"is_permanent"`
	Narration   string `json:"narration"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	PhoneNumber string `json:"phonenumber"`
	TxRef       string `json:"tx_ref"`
}

type createVirtualAccountResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AccountNumber string `json:"account_number"`
		BankName      string `json:"bank_name"`
		OrderRef      string `json:"order_ref"`
	} `json:"data"`
}

func (c *BankClient) CreateVirtualAccount(ctx context.Context, req VirtualAccountRequest) (*VirtualAccountDetails, error) {
	payload := createVirtualAccountRequest{
		Email:       req.Email,
		BVN:         req.BVN,
		IsPermanent: true,
		Narration:   req.Narration,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		TxRef:       req.TxRef,
	}
	var resp createVirtualAccountResponse
	if err := c.post(ctx, "/virtual-account-numbers", payload, &resp); err != nil {
		return nil, err
	}
	if !strings.EqualFold(resp.Status, "success") {
		return nil, fmt.Errorf("virtual account request declined: %s", resp.Message)
	}
	if resp.Data.AccountNumber == "" {
		return nil, fmt.Errorf("partner returned no account number")
	}
	return &VirtualAccountDetails{
		AccountNumber: resp.Data.AccountNumber,
		BankName:      resp.Data.BankName,
		OrderRef:      resp.Data.OrderRef,
	}, nil
}

func (c *BankClient) post(ctx context.Context, path string, body, target any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call banking partner: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read partner response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("banking partner returned error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("banking partner error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, target); err != nil {
		return fmt.Errorf("decode partner response: %w", err)
	}
	return nil
}
