package repository

import (
	"context"
	"sync"
	"time"

	"github.com/nashcompany/storefront/internal/domain"
)

// CleanupInterval is how often the background purge runs.
const CleanupInterval = 5 * time.Minute

// MemoryStore implements PendingOrderStore in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]*domain.PendingOrder // sessionID -> order
	refs   map[string]string               // externalReference -> sessionID
	now    func() time.Time

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewMemoryStore creates a new in-memory pending order store.
func NewMemoryStore() *MemoryStore {
	return newMemoryStore(time.Now, CleanupInterval)
}

func newMemoryStore(now func() time.Time, cleanupEvery time.Duration) *MemoryStore {
	s := &MemoryStore{
		orders:      make(map[string]*domain.PendingOrder),
		refs:        make(map[string]string),
		now:         now,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop(cleanupEvery)

	return s
}

func (s *MemoryStore) cleanupLoop(every time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.PurgeOlderThan(context.Background(), PendingRetention)
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) Save(_ context.Context, order *domain.PendingOrder) error {
	if order.SessionID == "" {
		return ErrInvalidOrder
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *order
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}
	s.orders[cp.SessionID] = &cp
	if cp.ExternalReference != "" {
		s.refs[cp.ExternalReference] = cp.SessionID
	}
	return nil
}

// Take removes and returns the order saved under ref.
func (s *MemoryStore) Take(_ context.Context, ref string) (*domain.PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID := ref
	if id, ok := s.refs[ref]; ok {
		sessionID = id
	}
	order, ok := s.orders[sessionID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	s.remove(order)
	return order, nil
}

func (s *MemoryStore) PurgeOlderThan(_ context.Context, age time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for _, order := range s.orders {
		if order.OlderThan(age, now) {
			s.remove(order)
			purged++
		}
	}
	return purged, nil
}

func (s *MemoryStore) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders), nil
}

// Close stops the background cleanup and waits for it to finish
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}

// remove must be called with mu held.
func (s *MemoryStore) remove(order *domain.PendingOrder) {
	delete(s.orders, order.SessionID)
	if order.ExternalReference != "" {
		delete(s.refs, order.ExternalReference)
	}
}
