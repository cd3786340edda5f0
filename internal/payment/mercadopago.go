package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nashcompany/storefront/internal/circuitbreaker"
)

// Config configures the Mercado Pago client.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// MercadoPagoClient implements Gateway over the Mercado Pago REST API.
// Preference creation and payment lookups trip independently, so a burst of
// lookups for unknown payments cannot block checkouts.
type MercadoPagoClient struct {
	httpClient     *http.Client
	baseURL        string
	accessToken    string
	prefBreaker    *circuitbreaker.Breaker[[]byte]
	paymentBreaker *circuitbreaker.Breaker[[]byte]
}

// NewMercadoPagoClient creates a client with a 5s default timeout.
func NewMercadoPagoClient(cfg Config, log *slog.Logger) *MercadoPagoClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &MercadoPagoClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		prefBreaker: circuitbreaker.New[[]byte](circuitbreaker.Settings{
			Name:         "payment-api-preferences",
			IsSuccessful: upstreamHealthy,
		}, log),
		paymentBreaker: circuitbreaker.New[[]byte](circuitbreaker.Settings{
			Name:         "payment-api-payments",
			IsSuccessful: upstreamHealthy,
		}, log),
	}
}

// upstreamHealthy keeps client errors (4xx other than 429) from tripping a
// breaker: the API answered, the request was wrong.
func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		code := upstream.StatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests
	}
	return false
}

// CreatePreference creates a checkout preference.
func (c *MercadoPagoClient) CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal preference failed: %w", err)
	}

	data, err := c.do(ctx, c.prefBreaker, "create preference", http.MethodPost, "/checkout/preferences", body)
	if err != nil {
		return nil, err
	}

	var pref Preference
	if err := json.Unmarshal(data, &pref); err != nil {
		return nil, fmt.Errorf("unmarshal preference failed: %w", err)
	}
	if pref.ID == "" || pref.InitPoint == "" {
		return nil, &UpstreamError{Op: "create preference", StatusCode: http.StatusOK, Message: "response without id or init_point"}
	}
	return &pref, nil
}

// GetPayment fetches a payment by id.
func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	data, err := c.do(ctx, c.paymentBreaker, "get payment", http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return nil, err
	}

	var p Payment
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal payment failed: %w", err)
	}
	return &p, nil
}

func (c *MercadoPagoClient) do(ctx context.Context, breaker *circuitbreaker.Breaker[[]byte], op, method, path string, body []byte) ([]byte, error) {
	if c.accessToken == "" {
		return nil, ErrMissingCredentials
	}

	data, err := breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("build request failed: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Idempotency-Key", uuid.NewString())
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &UpstreamError{Op: op, Message: err.Error()}
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Message: err.Error()}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Message: upstreamMessage(respBody)}
		}
		return respBody, nil
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, &UpstreamError{Op: op, Message: err.Error()}
	}
	return data, err
}

func upstreamMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return strings.TrimSpace(string(body))
}
