package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/parsemint/parsemint/internal/pkg/env"
)

const defaultRazorpayAPIBaseURL = "https://api.razorpay.com/v1"

// RazorpayClient talks to the gateway's order and payment REST endpoints.
// Requests authenticate with HTTP basic auth (key id / key secret).
type RazorpayClient struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string

	APIBaseURL string
	HTTPClient *http.Client
}

// NewRazorpayClientFromEnv builds a client from environment configuration.
func NewRazorpayClientFromEnv() *RazorpayClient {
	return &RazorpayClient{
		KeyID:         strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_ID", "")),
		KeySecret:     strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_SECRET", "")),
		WebhookSecret: strings.TrimSpace(env.GetEnv("RAZORPAY_WEBHOOK_SECRET", "")),
		APIBaseURL:    strings.TrimSpace(env.GetEnv("RAZORPAY_API_BASE_URL", defaultRazorpayAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ToMinorUnits converts a two-decimal price to integer minor units (paise).
// Rounding here is exact for two-decimal prices; behavior for sub-paise
// precision is not specified by the upstream contract.
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateOrder creates a remote order for the given amount.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*gatewayOrder, error) {
	if strings.TrimSpace(c.KeyID) == "" || strings.TrimSpace(c.KeySecret) == "" {
		return nil, errors.New("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET are not configured")
	}
	if amountMinor <= 0 {
		return nil, errors.New("order amount must be positive")
	}

	body := map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		body["notes"] = notes
	}

	var order gatewayOrder
	if err := c.doJSON(ctx, http.MethodPost, "/orders", body, &order); err != nil {
		return nil, err
	}
	if strings.TrimSpace(order.ID) == "" {
		return nil, errors.New("gateway order response missing order id")
	}
	return &order, nil
}

// GetOrder fetches the remote order entity for status checks.
func (c *RazorpayClient) GetOrder(ctx context.Context, orderID string) (*gatewayOrder, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, errors.New("order id is required")
	}
	var order gatewayOrder
	if err := c.doJSON(ctx, http.MethodGet, "/orders/"+id, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetPayment fetches the remote payment entity as a raw field map.
func (c *RazorpayClient) GetPayment(ctx context.Context, paymentID string) (map[string]any, error) {
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, errors.New("payment id is required")
	}
	var out map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/payments/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RazorpayClient) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.APIBaseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway request %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
