package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/padimoney/padimoney-backend/internal/domain"
)

// TermiiClient sends SMS through the Termii messaging API. Recipient numbers
// are normalized to international format before dispatch.
type TermiiClient struct {
	baseURL    string
	apiKey     string
	senderID   string
	httpClient *http.Client
}

func NewTermiiClient(baseURL, apiKey, senderID string) *TermiiClient {
	return &TermiiClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		senderID: senderID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type termiiRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	SMS     string `json:"sms"`
	Type    string `json:"type"`
	Channel string `json:"channel"`
	APIKey  string `json:"api_key"`
}

type termiiResponse struct {
	MessageID string `json:"message_id"`
	Message   string `json:"message"`
}

func (c *TermiiClient) SendSMS(ctx context.Context, to, message string) error {
	payload := termiiRequest{
		To:      domain.NormalizeMSISDN(to),
		From:    c.senderID,
		SMS:     message,
		Type:    "plain",
		Channel: "generic",
		APIKey:  c.apiKey,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sms/send", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var decoded termiiResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err == nil && decoded.Message != "" {
			return fmt.Errorf("sms provider rejected message: %s", decoded.Message)
		}
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}
	return nil
}
