package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/nashcompany/storefront/internal/domain"
)

// MaxLogEntries bounds every MessageLog implementation.
const MaxLogEntries = 100

// ErrEntryNotFound is returned when a log entry id is unknown.
var ErrEntryNotFound = errors.New("message log entry not found")

// MessageLog is the audit trail of every dispatch attempt. List returns
// entries oldest first.
type MessageLog interface {
	Append(ctx context.Context, entry domain.NotificationLogEntry) error
	List(ctx context.Context) ([]domain.NotificationLogEntry, error)
	Get(ctx context.Context, id string) (*domain.NotificationLogEntry, error)
	Stats(ctx context.Context) (domain.MessageStats, error)
	Close() error
}

// MemoryLog is an in-memory MessageLog that keeps only the most recent entries.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []domain.NotificationLogEntry
	limit   int
}

// NewMemoryLog creates a new empty in-memory message log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{limit: MaxLogEntries}
}

func (l *MemoryLog) Append(_ context.Context, entry domain.NotificationLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append([]domain.NotificationLogEntry(nil), l.entries[over:]...)
	}
	return nil
}

// List returns a copy of the entries, oldest first.
func (l *MemoryLog) List(_ context.Context) ([]domain.NotificationLogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.NotificationLogEntry, len(l.entries))
	copy(out, l.entries)
	return out, nil
}

func (l *MemoryLog) Get(_ context.Context, id string) (*domain.NotificationLogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := range l.entries {
		if l.entries[i].ID == id {
			entry := l.entries[i]
			return &entry, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (l *MemoryLog) Stats(ctx context.Context) (domain.MessageStats, error) {
	entries, _ := l.List(ctx)
	return computeStats(entries), nil
}

func (l *MemoryLog) Close() error {
	return nil
}

func computeStats(entries []domain.NotificationLogEntry) domain.MessageStats {
	stats := domain.MessageStats{Total: len(entries)}
	for _, e := range entries {
		switch e.Status {
		case domain.MessageStatusSent:
			stats.Sent++
		case domain.MessageStatusPending:
			stats.Pending++
		case domain.MessageStatusError:
			stats.Error++
		}
	}
	return stats
}
