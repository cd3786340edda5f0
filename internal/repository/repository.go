package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nashcompany/storefront/internal/domain"
)

// PendingRetention bounds how long an unpaid checkout is kept.
const PendingRetention = time.Hour

var (
	ErrOrderNotFound = errors.New("pending order not found")
	ErrInvalidOrder  = errors.New("pending order needs a session id")
)

// PendingOrderStore holds checkouts awaiting payment confirmation.
type PendingOrderStore interface {
	// Save stores the order under its session id and external reference.
	Save(ctx context.Context, order *domain.PendingOrder) error

	// Take removes and returns the order matching ref (session id or external
	// reference). Only one of several concurrent callers gets the order.
	Take(ctx context.Context, ref string) (*domain.PendingOrder, error)

	// PurgeOlderThan drops orders created more than age ago.
	PurgeOlderThan(ctx context.Context, age time.Duration) (int, error)

	// Len reports how many orders are pending.
	Len(ctx context.Context) (int, error)

	Close() error
}
