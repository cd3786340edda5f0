package promo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nashcompany/storefront/internal/storage"
)

const (
	CountdownDuration = 24 * time.Hour
	EndedBanner       = "PROMOÇÃO DE LANÇAMENTO ENCERRADA"
)

// Countdown is the launch banner timer. Its deadline survives reloads under
// storage.CountdownKey as unix milliseconds.
type Countdown struct {
	storage  storage.Storage
	now      func() time.Time
	deadline time.Time
}

// StartCountdown reuses a stored deadline that has not passed yet, otherwise
// starts a new one CountdownDuration from now.
func StartCountdown(ctx context.Context, s storage.Storage, now func() time.Time) (*Countdown, error) {
	if now == nil {
		now = time.Now
	}
	c := &Countdown{storage: s, now: now}

	stored, err := s.Get(ctx, storage.CountdownKey)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, fmt.Errorf("read countdown failed: %w", err)
	}
	if err == nil {
		if ms, perr := strconv.ParseInt(string(stored), 10, 64); perr == nil {
			if deadline := time.UnixMilli(ms); deadline.After(now()) {
				c.deadline = deadline
				return c, nil
			}
		}
	}

	c.deadline = now().Add(CountdownDuration)
	value := strconv.FormatInt(c.deadline.UnixMilli(), 10)
	if err := s.Set(ctx, storage.CountdownKey, []byte(value)); err != nil {
		return nil, fmt.Errorf("store countdown failed: %w", err)
	}
	return c, nil
}

func (c *Countdown) Deadline() time.Time {
	return c.deadline
}

// Text is the banner content: HH:MM:SS while running, EndedBanner after.
func (c *Countdown) Text() (string, bool) {
	left := c.deadline.Sub(c.now())
	if left < 0 {
		return EndedBanner, true
	}
	return FormatRemaining(left), false
}

// Run updates the banner every interval. When the deadline passes it shows
// EndedBanner, forgets the stored deadline and stops. The returned channel is
// closed at that point; it stays open if tasks are stopped first.
func (c *Countdown) Run(tasks *Tasks, interval time.Duration, show func(text string)) <-chan struct{} {
	ended := make(chan struct{})
	tasks.Every(interval, func(ctx context.Context) bool {
		text, done := c.Text()
		show(text)
		if done {
			_ = c.storage.Delete(ctx, storage.CountdownKey)
			close(ended)
			return false
		}
		return true
	})
	return ended
}

// FormatRemaining renders the hour part modulo a day, as the banner does.
func FormatRemaining(d time.Duration) string {
	total := int64(d / time.Second)
	hours := (total % (24 * 3600)) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
