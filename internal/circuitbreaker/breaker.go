package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrOpen is returned instead of calling the downstream while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

// Settings configures a Breaker. IsSuccessful decides which errors count
// against the breaker; when nil every non-nil error does.
type Settings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	IsSuccessful     func(err error) bool
}

// Breaker fails fast once a downstream keeps failing.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a breaker that opens after FailureThreshold consecutive failures
// and lets a trial call through after OpenTimeout.
func New[T any](s Settings, log *slog.Logger) *Breaker[T] {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	threshold := s.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:         s.Name,
		MaxRequests:  1,
		Timeout:      s.OpenTimeout,
		IsSuccessful: s.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warn("circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			}
		},
	})
	return &Breaker[T]{cb: cb}
}

// Execute runs fn through the breaker. Open and half-open rejections become ErrOpen.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, ErrOpen
	}
	return v, err
}
