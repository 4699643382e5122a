package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locker-fleet-backend/config"
)

func TestHTTPCapturer(t *testing.T) {
	t.Run("posts the payment ref and accepts 2xx", func(t *testing.T) {
		var got map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := NewHTTPCapturer(&config.PaymentConfig{CaptureURL: server.URL, TimeoutSeconds: 2})
		require.NoError(t, c.Capture(context.Background(), "pay-123"))
		assert.Equal(t, "pay-123", got["payment_ref"])
	})

	t.Run("non-2xx is a capture failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
		}))
		defer server.Close()

		c := NewHTTPCapturer(&config.PaymentConfig{CaptureURL: server.URL, TimeoutSeconds: 2})
		err := c.Capture(context.Background(), "pay-123")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "402")
	})

	t.Run("no configured URL accepts everything", func(t *testing.T) {
		c := NewHTTPCapturer(&config.PaymentConfig{TimeoutSeconds: 2})
		assert.NoError(t, c.Capture(context.Background(), "pay-123"))
	})
}
