package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type MailClient struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

type MailConfig struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

type sendMailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func NewMailClient(cfg MailConfig) *MailClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &MailClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Send delivers one email through the mail provider. Delivery failures are
// returned to the caller; retry policy belongs to the reminder worker.
func (mc *MailClient) Send(ctx context.Context, to, subject, text string) error {
	reqBody := sendMailRequest{
		From:    mc.from,
		To:      to,
		Subject: subject,
		Text:    text,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mc.baseURL+"/v1/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mc.apiKey)

	resp, err := mc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}

	return nil
}
