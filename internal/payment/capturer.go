package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"locker-fleet-backend/config"
)

// Capturer finalizes a payment the customer already approved at the gateway.
// The gateway protocol itself lives behind this interface; the orchestrator
// only cares whether the capture settled.
type Capturer interface {
	Capture(ctx context.Context, paymentRef string) error
}

// HTTPCapturer posts capture requests to the configured gateway endpoint.
type HTTPCapturer struct {
	url    string
	client *http.Client
}

// NewHTTPCapturer builds a capturer from config. With no capture URL
// configured it degrades to a logging no-op, which keeps local development
// free of gateway credentials.
func NewHTTPCapturer(cfg *config.PaymentConfig) *HTTPCapturer {
	return &HTTPCapturer{
		url: cfg.CaptureURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (c *HTTPCapturer) Capture(ctx context.Context, paymentRef string) error {
	if c.url == "" {
		log.Printf("payment capture URL not configured; accepting capture for %q", paymentRef)
		return nil
	}

	body, err := json.Marshal(map[string]string{"payment_ref": paymentRef})
	if err != nil {
		return fmt.Errorf("failed to marshal capture request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create capture request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("capture request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("capture of %q rejected with status %d", paymentRef, resp.StatusCode)
	}
	return nil
}
