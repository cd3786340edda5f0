// Package checkout turns the persisted cart into a payment redirect, either
// through the order relay or through a pre-filled chat link to the shop.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/nashcompany/storefront/internal/domain"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrCheckoutFailed     = errors.New("checkout failed")
)

// Buyer is the optional form data sent along with the cart.
type Buyer struct {
	Customer *domain.Customer
	Address  *domain.Address
}

// Strategy produces the URL the buyer is sent to.
type Strategy interface {
	Begin(ctx context.Context, items []domain.CartLineItem, buyer Buyer) (string, error)
}

// CartSource is the cart state read at checkout.
type CartSource interface {
	Items() []domain.CartLineItem
}

// Initiator starts a checkout for the current cart using one Strategy.
type Initiator struct {
	cart     CartSource
	strategy Strategy
	busy     atomic.Bool
	log      *slog.Logger
}

// NewInitiator creates a new Initiator.
func NewInitiator(cart CartSource, strategy Strategy, log *slog.Logger) *Initiator {
	return &Initiator{cart: cart, strategy: strategy, log: log}
}

// Busy reports whether a submission is in flight.
func (i *Initiator) Busy() bool {
	return i.busy.Load()
}

// Checkout starts a checkout for the current cart. The cart itself is left
// untouched whatever the outcome.
func (i *Initiator) Checkout(ctx context.Context, buyer Buyer) (string, error) {
	items := i.cart.Items()
	if len(items) == 0 {
		return "", ErrEmptyCart
	}
	if !i.busy.CompareAndSwap(false, true) {
		return "", ErrCheckoutInProgress
	}
	defer i.busy.Store(false)

	url, err := i.strategy.Begin(ctx, items, buyer)
	if err != nil {
		i.log.ErrorContext(ctx, "checkout failed", "items", len(items), "error", err)
		return "", err
	}
	i.log.InfoContext(ctx, "checkout started", "items", len(items))
	return url, nil
}

// UserMessage is the text shown to the buyer for a checkout error.
func UserMessage(err error) string {
	var vf *ValidationFailure
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyCart):
		return "Seu carrinho está vazio. Adicione alguns produtos antes de finalizar!"
	case errors.Is(err, ErrCheckoutInProgress):
		return "Processando..."
	case errors.As(err, &vf):
		return "Verifique seus dados: " + vf.Error()
	default:
		return "Erro ao processar pagamento. Tente novamente."
	}
}
