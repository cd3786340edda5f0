package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nashcompany/storefront/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ValidationFailure carries the relay's field-level rejections.
type ValidationFailure struct {
	Details []string
}

func (e *ValidationFailure) Error() string {
	return strings.Join(e.Details, "; ")
}

// RelayConfig configures the relay checkout strategy.
type RelayConfig struct {
	BaseURL string
	Sandbox bool
	Timeout time.Duration
}

// RelayStrategy posts the cart to the order relay and returns the payment URL.
type RelayStrategy struct {
	httpClient *http.Client
	baseURL    string
	sandbox    bool
}

// NewRelayStrategy creates a strategy that posts the cart to the order relay.
func NewRelayStrategy(cfg RelayConfig) *RelayStrategy {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &RelayStrategy{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		sandbox: cfg.Sandbox,
	}
}

type relayRequest struct {
	Items    []domain.CartLineItem `json:"items"`
	Customer *domain.Customer      `json:"customer,omitempty"`
	Address  *domain.Address       `json:"address,omitempty"`
}

type relayResponse struct {
	SessionID          string `json:"sessionId"`
	RedirectURL        string `json:"redirectUrl"`
	SandboxRedirectURL string `json:"sandboxRedirectUrl"`
	InitPoint          string `json:"init_point"`
	SandboxInitPoint   string `json:"sandbox_init_point"`
}

type relayError struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

// Begin creates the checkout on the relay and returns the payment redirect URL.
func (s *RelayStrategy) Begin(ctx context.Context, items []domain.CartLineItem, buyer Buyer) (string, error) {
	body, err := json.Marshal(relayRequest{Items: items, Customer: buyer.Customer, Address: buyer.Address})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrCheckoutFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/checkout", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrCheckoutFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return "", validationFailure(data)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: relay returned status %d", ErrCheckoutFailed, resp.StatusCode)
	}

	var out relayResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrCheckoutFailed, err)
	}
	if url := s.pick(out); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("%w: response has no redirect url", ErrCheckoutFailed)
}

func (s *RelayStrategy) pick(r relayResponse) string {
	live := firstNonEmpty(r.RedirectURL, r.InitPoint)
	sandbox := firstNonEmpty(r.SandboxRedirectURL, r.SandboxInitPoint)
	if s.sandbox && sandbox != "" {
		return sandbox
	}
	return firstNonEmpty(live, sandbox)
}

func validationFailure(data []byte) error {
	var body relayError
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("%w: relay rejected the request", ErrCheckoutFailed)
	}

	var details []string
	if err := json.Unmarshal(body.Details, &details); err != nil || len(details) == 0 {
		details = []string{body.Error}
	}
	return &ValidationFailure{Details: details}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
