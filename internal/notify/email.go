package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SendGridClient sends transactional email through the SendGrid v3 API.
type SendGridClient struct {
	baseURL    string
	apiKey     string
	fromEmail  string
	fromName   string
	httpClient *http.Client
}

func NewSendGridClient(baseURL, apiKey, fromEmail, fromName string) *SendGridClient {
	return &SendGridClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendGridEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []struct {
		To []sendGridEmail `json:"to"`
	} `json:"personalizations"`
	From    sendGridEmail     `json:"from"`
	Subject string            `json:"subject"`
	Content []sendGridContent `json:"content"`
}

func (c *SendGridClient) SendEmail(ctx context.Context, to, subject, body string) error {
	request := sendGridRequest{
		From:    sendGridEmail{Email: c.fromEmail, Name: c.fromName},
		Subject: subject,
		Content: []sendGridContent{{Type: "text/html", Value: body}},
	}
	request.Personalizations = append(request.Personalizations, struct {
		To []sendGridEmail `json:"to"`
	}{To: []sendGridEmail{{Email: to}}})

	encoded, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}
