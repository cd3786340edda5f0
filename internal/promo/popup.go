package promo

import (
	"context"
	"errors"
	"time"

	"github.com/nashcompany/storefront/internal/storage"
)

// PopupDelay is how long the popup waits before showing.
const PopupDelay = 7 * time.Second

// Popup shows the VIP modal at most once per session.
type Popup struct {
	session storage.Storage
}

// NewPopup creates a popup whose seen flag lives in session storage.
func NewPopup(session storage.Storage) *Popup {
	return &Popup{session: session}
}

func (p *Popup) Seen(ctx context.Context) bool {
	_, err := p.session.Get(ctx, storage.PopupSeenKey)
	return !errors.Is(err, storage.ErrKeyNotFound)
}

// ShowAfter schedules the popup. It is skipped when it was already seen this
// session, or when another modal is open at the time it fires.
func (p *Popup) ShowAfter(ctx context.Context, tasks *Tasks, delay time.Duration, modalOpen func() bool, show func()) bool {
	if p.Seen(ctx) {
		return false
	}
	tasks.After(delay, func(ctx context.Context) {
		if modalOpen != nil && modalOpen() {
			return
		}
		show()
		_ = p.session.Set(ctx, storage.PopupSeenKey, []byte("true"))
	})
	return true
}
