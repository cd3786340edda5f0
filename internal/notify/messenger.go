package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nashcompany/storefront/internal/circuitbreaker"
)

// ErrAPIUnavailable means no API key is configured and the web fallback must be used.
var ErrAPIUnavailable = errors.New("messaging api key is not configured")

// Messenger delivers a text message through the messaging provider's API.
type Messenger interface {
	SendText(ctx context.Context, phone, message string) error
}

// APIConfig configures the WhatsApp messaging API client.
type APIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// APIMessenger sends text messages through the WhatsApp messaging API.
type APIMessenger struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *circuitbreaker.Breaker[struct{}]
}

// NewAPIMessenger creates a new messenger. Without an API key every send fails
// with ErrAPIUnavailable.
func NewAPIMessenger(cfg APIConfig, log *slog.Logger) *APIMessenger {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &APIMessenger{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		breaker:    circuitbreaker.New[struct{}](circuitbreaker.Settings{Name: "messaging-api"}, log),
	}
}

type sendPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// SendText posts a single text message to phone.
func (m *APIMessenger) SendText(ctx context.Context, phone, message string) error {
	if m.apiKey == "" {
		return ErrAPIUnavailable
	}
	body, err := json.Marshal(sendPayload{To: phone, Message: message, Type: "text"})
	if err != nil {
		return fmt.Errorf("marshal message failed: %w", err)
	}

	_, err = m.breaker.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/send", bytes.NewReader(body))
		if err != nil {
			return struct{}{}, fmt.Errorf("build request failed: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := m.httpClient.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("messaging api request failed: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			return struct{}{}, fmt.Errorf("messaging api returned status %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	return err
}
