package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ProcessRequest is the outbound payment charge request.
type ProcessRequest struct {
	BookKeepingID      string          `json:"bookKeepingId"`
	UserID             string          `json:"userId"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	SubscriptionPlanID string          `json:"subscriptionPlanId"`
}

type processResponse struct {
	PaymentReferenceID string `json:"paymentReferenceId"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Client talks to the external payment gateway over HTTP. Every call is
// bounded by the configured per-call timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a payment gateway client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Process submits a charge and returns the gateway's payment reference.
func (c *Client) Process(ctx context.Context, req ProcessRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, data)
	}

	var out processResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("invalid payment gateway response: %w", err)
	}
	if out.PaymentReferenceID == "" {
		return "", fmt.Errorf("payment gateway response missing reference id")
	}

	return out.PaymentReferenceID, nil
}

// Status looks up the state of a previously submitted payment.
func (c *Client) Status(ctx context.Context, paymentReferenceID string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+paymentReferenceID, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, data)
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("invalid payment gateway response: %w", err)
	}

	return out.Status, nil
}
