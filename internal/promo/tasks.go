// Package promo holds the storefront's timed widgets: the launch countdown
// banner and the once-per-session VIP popup.
package promo

import (
	"context"
	"sync"
	"time"
)

// Tasks runs delayed and periodic callbacks that all stop together when the
// owning view goes away.
type Tasks struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTasks creates a task group cancelled with parent.
func NewTasks(parent context.Context) *Tasks {
	ctx, cancel := context.WithCancel(parent)
	return &Tasks{ctx: ctx, cancel: cancel}
}

// After runs fn once after delay unless the tasks are stopped first.
func (t *Tasks) After(delay time.Duration, fn func(ctx context.Context)) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			fn(t.ctx)
		case <-t.ctx.Done():
		}
	}()
}

// Every runs fn on each tick until fn returns false or the tasks are stopped.
func (t *Tasks) Every(interval time.Duration, fn func(ctx context.Context) bool) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !fn(t.ctx) {
					return
				}
			case <-t.ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels pending callbacks and waits for running ones to return.
func (t *Tasks) Stop() {
	t.cancel()
	t.wg.Wait()
}
