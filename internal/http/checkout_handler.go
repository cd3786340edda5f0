package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nashcompany/storefront/internal/payment"
	"github.com/nashcompany/storefront/internal/service"
)

// CheckoutService is the relay behaviour the checkout endpoints need.
type CheckoutService interface {
	Checkout(ctx context.Context, req *service.CheckoutRequest) (*service.CheckoutResult, error)
	HandleWebhook(ctx context.Context, ev service.WebhookEvent) (service.WebhookResult, error)
}

// CheckoutHandler serves checkout creation and payment webhooks.
type CheckoutHandler struct {
	relay   CheckoutService
	timeout time.Duration
	log     *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(relay CheckoutService, timeout time.Duration, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{relay: relay, timeout: timeout, log: log}
}

// CheckoutResponseDTO also carries the preference field names older
// storefront scripts read.
type CheckoutResponseDTO struct {
	SessionID          string `json:"sessionId"`
	RedirectURL        string `json:"redirectUrl"`
	SandboxRedirectURL string `json:"sandboxRedirectUrl,omitempty"`
	ID                 string `json:"id"`
	InitPoint          string `json:"init_point"`
	SandboxInitPoint   string `json:"sandbox_init_point,omitempty"`
}

const (
	msgInvalidData   = "Dados inválidos"
	msgInternalError = "Erro interno do servidor"
)

// POST /checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", msgInvalidData, []string{"JSON inválido"})
		return
	}

	res, err := h.relay.Checkout(ctx, &req)
	if err != nil {
		h.checkoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		SessionID:          res.SessionID,
		RedirectURL:        res.RedirectURL,
		SandboxRedirectURL: res.SandboxRedirectURL,
		ID:                 res.SessionID,
		InitPoint:          res.RedirectURL,
		SandboxInitPoint:   res.SandboxRedirectURL,
	})
}

func (h *CheckoutHandler) checkoutError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		respondError(w, http.StatusBadRequest, "validation_failed", msgInvalidData, verr.Details)
		return
	}

	details := err.Error()
	var upstream *payment.UpstreamError
	if errors.As(err, &upstream) {
		details = upstream.Message
	}
	h.log.ErrorContext(r.Context(), "checkout failed", "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error", msgInternalError, details)
}

// POST /webhook
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ev := parseWebhook(r)
	if _, err := h.relay.HandleWebhook(ctx, ev); err != nil {
		h.log.ErrorContext(ctx, "webhook processing failed", "type", ev.Type, "payment_id", ev.PaymentID, "error", err)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// notificationID accepts both numeric and string ids.
type notificationID string

func (id *notificationID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = notificationID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = notificationID(n.String())
	return nil
}

type webhookBody struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID notificationID `json:"id"`
	} `json:"data"`
}

// parseWebhook reads the notification from the body, falling back to the
// query string used by older notification formats.
func parseWebhook(r *http.Request) service.WebhookEvent {
	var body webhookBody
	_ = json.NewDecoder(r.Body).Decode(&body)

	q := r.URL.Query()
	ev := service.WebhookEvent{
		Type:      firstNonEmpty(body.Type, body.Topic, q.Get("type"), q.Get("topic")),
		Action:    body.Action,
		PaymentID: firstNonEmpty(string(body.Data.ID), q.Get("data.id"), q.Get("id")),
	}
	return ev
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
