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
)

// IdentityClient queries the KYC bureau for BVN resolution.
type IdentityClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewIdentityClient(baseURL, apiKey string) *IdentityClient {
	return &IdentityClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type bvnLookupResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"data"`
}

func (c *IdentityClient) VerifyBVN(ctx context.Context, bvn string) (*BVNCheck, error) {
	payload, err := json.Marshal(map[string]string{"bvn": bvn})
	if err != nil {
		return nil, fmt.Errorf("encode bvn lookup: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bvn/lookup", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call identity bureau: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read bureau response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return &BVNCheck{IsValid: false, Message: "bvn not found"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity bureau error: status %d", resp.StatusCode)
	}

	var decoded bvnLookupResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode bureau response: %w", err)
	}
	if !strings.EqualFold(decoded.Status, "success") {
		return &BVNCheck{IsValid: false, Message: decoded.Message}, nil
	}
	return &BVNCheck{
		IsValid:      true,
		CustomerName: strings.TrimSpace(decoded.Data.FirstName + " " + decoded.Data.LastName),
		Message:      decoded.Message,
	}, nil
}
