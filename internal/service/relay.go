package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nashcompany/storefront/internal/domain"
	"github.com/nashcompany/storefront/internal/notify"
	"github.com/nashcompany/storefront/internal/payment"
	"github.com/nashcompany/storefront/internal/publisher"
	"github.com/nashcompany/storefront/internal/repository"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultPaymentMethod = "Mercado Pago"
	ExternalRefPrefix    = "nash_"
	maxInstallments      = 12
)

// CheckoutItem is one cart line as posted by the storefront.
type CheckoutItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Img      string  `json:"img"`
	Color    string  `json:"color"`
	Size     string  `json:"size"`
	Quantity float64 `json:"quantity"`
}

// CheckoutRequest is the body of POST /checkout.
type CheckoutRequest struct {
	Items         []CheckoutItem   `json:"items"`
	Customer      *domain.Customer `json:"customer,omitempty"`
	Address       *domain.Address  `json:"address,omitempty"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
}

// CheckoutResult carries the payment redirect for a created checkout.
type CheckoutResult struct {
	SessionID          string
	RedirectURL        string
	SandboxRedirectURL string
}

// WebhookEvent is the part of a payment notification the relay acts on.
type WebhookEvent struct {
	Type      string
	Action    string
	PaymentID string
}

func (e WebhookEvent) isPayment() bool {
	return e.Type == "payment" || strings.HasPrefix(e.Action, "payment.")
}

// WebhookResult reports what a webhook delivery did.
type WebhookResult struct {
	PaymentID  string
	Status     string
	Dispatched bool
}

// Notifier sends the order summaries once a payment is approved.
type Notifier interface {
	SendToAdmin(ctx context.Context, order *domain.PendingOrder) (notify.Result, error)
	SendToCustomer(ctx context.Context, order *domain.PendingOrder) (notify.Result, error)
}

// RelayConfig holds the URLs and retention used by the Relay.
type RelayConfig struct {
	PublicURL  string
	SuccessURL string
	FailureURL string
	PendingURL string
	Retention  time.Duration
}

// Relay creates payment preferences for checkouts and turns approved payment
// webhooks into order notifications. Each pending order is consumed once.
type Relay struct {
	gateway  payment.Gateway
	orders   repository.PendingOrderStore
	notifier Notifier
	events   publisher.Publisher
	cfg      RelayConfig
	log      *slog.Logger
	sfg      singleflight.Group // one lookup per payment id at a time
	now      func() time.Time
}

// NewRelay creates a new Relay.
func NewRelay(
	gateway payment.Gateway,
	orders repository.PendingOrderStore,
	notifier Notifier,
	events publisher.Publisher,
	cfg RelayConfig,
	log *slog.Logger,
) *Relay {
	if cfg.Retention == 0 {
		cfg.Retention = repository.PendingRetention
	}
	if events == nil {
		events = publisher.Noop{}
	}
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	return &Relay{
		gateway:  gateway,
		orders:   orders,
		notifier: notifier,
		events:   events,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Checkout validates the cart, opens a payment session and remembers the
// order until the payment notification arrives.
func (r *Relay) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	r.purgeExpired(ctx)

	items := req.lineItems()
	total := domain.SumItems(items)
	externalRef := ExternalRefPrefix + uuid.NewString()

	prefReq := r.preferenceRequest(req, items, total.StringFixed(2), externalRef)
	pref, err := r.gateway.CreatePreference(ctx, prefReq)
	if err != nil {
		r.log.ErrorContext(ctx, "create preference failed",
			"external_reference", externalRef, "items", prefReq.Items, "error", err)
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = DefaultPaymentMethod
	}
	totalValue, _ := total.Float64()
	order := &domain.PendingOrder{
		SessionID:         pref.ID,
		ExternalReference: externalRef,
		Customer:          req.Customer,
		Address:           req.Address,
		Items:             items,
		Total:             totalValue,
		PaymentMethod:     method,
		CreatedAt:         r.now(),
	}
	if err := r.orders.Save(ctx, order); err != nil {
		r.log.ErrorContext(ctx, "save pending order failed", "session_id", pref.ID, "error", err)
		return nil, fmt.Errorf("save pending order: %w", err)
	}

	r.log.InfoContext(ctx, "checkout created",
		"session_id", pref.ID, "external_reference", externalRef, "total", total.StringFixed(2), "items", len(items))

	return &CheckoutResult{
		SessionID:          pref.ID,
		RedirectURL:        pref.InitPoint,
		SandboxRedirectURL: pref.SandboxInitPoint,
	}, nil
}

func (r *Relay) preferenceRequest(req *CheckoutRequest, items []domain.CartLineItem, total, externalRef string) *payment.PreferenceRequest {
	prefItems := make([]payment.Item, 0, len(items))
	for _, item := range items {
		prefItems = append(prefItems, payment.Item{
			ID:          item.ProductID,
			Title:       item.Name,
			Description: item.Color + " / " + item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			CurrencyID:  payment.CurrencyBRL,
			PictureURL:  r.pictureURL(item.Img),
		})
	}

	var payer *payment.Payer
	if req.Customer != nil {
		payer = &payment.Payer{Name: req.Customer.Name, Phone: &payment.Phone{Number: req.Customer.Phone}}
	}

	return &payment.PreferenceRequest{
		Items: prefItems,
		Payer: payer,
		BackURLs: payment.BackURLs{
			Success: r.cfg.SuccessURL,
			Failure: r.cfg.FailureURL,
			Pending: r.cfg.PendingURL,
		},
		AutoReturn:        "all",
		ExternalReference: externalRef,
		NotificationURL:   r.cfg.PublicURL + "/webhook",
		PaymentMethods: payment.PaymentMethods{
			ExcludedPaymentMethods: []map[string]string{},
			ExcludedPaymentTypes:   []map[string]string{},
			Installments:           maxInstallments,
		},
		StatementInfo:  "NASH COMPANY",
		AdditionalInfo: "Compra na NASH COMPANY - Total: R$ " + total,
	}
}

func (r *Relay) pictureURL(img string) string {
	if img == "" || strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		return img
	}
	return r.cfg.PublicURL + "/" + strings.TrimPrefix(img, "/")
}

func (r *Relay) purgeExpired(ctx context.Context) {
	n, err := r.orders.PurgeOlderThan(ctx, r.cfg.Retention)
	if err != nil {
		r.log.WarnContext(ctx, "purge pending orders failed", "error", err)
		return
	}
	if n > 0 {
		r.log.InfoContext(ctx, "purged expired pending orders", "count", n)
	}
}

// HandleWebhook confirms an order once its payment is approved. Duplicate
// notifications for the same payment dispatch at most once.
func (r *Relay) HandleWebhook(ctx context.Context, ev WebhookEvent) (WebhookResult, error) {
	if !ev.isPayment() || ev.PaymentID == "" {
		r.log.DebugContext(ctx, "ignoring webhook", "type", ev.Type, "action", ev.Action)
		return WebhookResult{}, nil
	}

	// the first caller's context may be cancelled while others wait on it
	detached := context.WithoutCancel(ctx)
	v, err, _ := r.sfg.Do(ev.PaymentID, func() (interface{}, error) {
		return r.confirmPayment(detached, ev.PaymentID)
	})
	if err != nil {
		return WebhookResult{PaymentID: ev.PaymentID}, err
	}
	return v.(WebhookResult), nil
}

func (r *Relay) confirmPayment(ctx context.Context, paymentID string) (WebhookResult, error) {
	res := WebhookResult{PaymentID: paymentID}

	pay, err := r.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		r.log.ErrorContext(ctx, "payment lookup failed", "payment_id", paymentID, "error", err)
		return res, err
	}
	res.Status = pay.Status

	if !pay.Approved() {
		r.log.InfoContext(ctx, "payment not approved", "payment_id", paymentID, "status", pay.Status)
		return res, nil
	}

	order, err := r.orders.Take(ctx, pay.ExternalReference)
	if errors.Is(err, repository.ErrOrderNotFound) {
		r.log.InfoContext(ctx, "no pending order for payment",
			"payment_id", paymentID, "external_reference", pay.ExternalReference)
		return res, nil
	}
	if err != nil {
		r.log.ErrorContext(ctx, "take pending order failed", "payment_id", paymentID, "error", err)
		return res, err
	}
	if pay.PaymentMethodID != "" {
		order.PaymentMethod = pay.PaymentMethodID
	}

	r.dispatch(ctx, order)
	res.Dispatched = true

	event := publisher.NewOrderConfirmed(order, paymentID, r.now())
	if err := r.events.PublishOrderConfirmed(ctx, event); err != nil {
		r.log.ErrorContext(ctx, "publish order event failed", "external_reference", order.ExternalReference, "error", err)
	}
	return res, nil
}

func (r *Relay) dispatch(ctx context.Context, order *domain.PendingOrder) {
	if res, err := r.notifier.SendToAdmin(ctx, order); err != nil {
		r.log.ErrorContext(ctx, "admin notification failed", "session_id", order.SessionID, "error", err)
	} else {
		r.log.InfoContext(ctx, "admin notified", "session_id", order.SessionID, "method", res.Method)
	}

	res, err := r.notifier.SendToCustomer(ctx, order)
	switch {
	case errors.Is(err, notify.ErrNoCustomerPhone):
		r.log.InfoContext(ctx, "order has no customer phone", "session_id", order.SessionID)
	case err != nil:
		r.log.ErrorContext(ctx, "customer notification failed", "session_id", order.SessionID, "error", err)
	default:
		r.log.InfoContext(ctx, "customer notified", "session_id", order.SessionID, "method", res.Method)
	}
}
