// Package payment talks to the remote payment-preference API (Mercado Pago
// "checkout/preferences" and "v1/payments" resources).
package payment

import (
	"context"
	"errors"
	"fmt"
)

const (
	CurrencyBRL    = "BRL"
	StatusApproved = "approved"
)

// ErrMissingCredentials is returned when no access token is configured.
var ErrMissingCredentials = errors.New("payment access token is not configured")

// UpstreamError is a non-2xx answer (or transport failure) from the payment API.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("payment api %s failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("payment api %s failed (%d): %s", e.Op, e.StatusCode, e.Message)
}

type Item struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	CurrencyID  string  `json:"currency_id"`
	PictureURL  string  `json:"picture_url,omitempty"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PaymentMethods struct {
	ExcludedPaymentMethods []map[string]string `json:"excluded_payment_methods"`
	ExcludedPaymentTypes   []map[string]string `json:"excluded_payment_types"`
	Installments           int                 `json:"installments"`
}

type Phone struct {
	Number string `json:"number"`
}

type Payer struct {
	Name  string `json:"name,omitempty"`
	Phone *Phone `json:"phone,omitempty"`
}

// PreferenceRequest is the body of a create preference call.
type PreferenceRequest struct {
	Items             []Item         `json:"items"`
	Payer             *Payer         `json:"payer,omitempty"`
	BackURLs          BackURLs       `json:"back_urls"`
	AutoReturn        string         `json:"auto_return"`
	ExternalReference string         `json:"external_reference"`
	NotificationURL   string         `json:"notification_url"`
	PaymentMethods    PaymentMethods `json:"payment_methods"`
	StatementInfo     string         `json:"statement_descriptor,omitempty"`
	AdditionalInfo    string         `json:"additional_info,omitempty"`
}

// Preference is the payment session the buyer is redirected to.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Payment is the subset of a payment resource the relay reads.
type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	PaymentMethodID   string  `json:"payment_method_id"`
	PaymentTypeID     string  `json:"payment_type_id"`
	TransactionAmount float64 `json:"transaction_amount"`
}

func (p *Payment) Approved() bool {
	return p.Status == StatusApproved
}

// Gateway is the payment provider used by the relay.
type Gateway interface {
	CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}
