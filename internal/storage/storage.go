// Package storage is the durable client-side key/value store the storefront
// keeps its cart, countdown deadline and session flags in.
package storage

import (
	"context"
	"errors"
)

// Storage keys used by the storefront.
const (
	CartKey      = "nashCart"
	CountdownKey = "countdownTarget"
	PopupSeenKey = "vipPopupSeen"
)

// ErrKeyNotFound is returned by Get for a missing key.
var ErrKeyNotFound = errors.New("key not found")

// Storage is a small key/value store for client side state.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
