package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nashcompany/storefront/internal/domain"
	"github.com/nashcompany/storefront/internal/logger"
	"github.com/nashcompany/storefront/internal/storage"
	"github.com/shopspring/decimal"
)

// EventKind identifies a cart mutation.
type EventKind int

const (
	EventLoaded EventKind = iota
	EventAdded
	EventRemoved
	EventCleared
)

// Event is delivered to subscribers after every cart mutation or reload.
type Event struct {
	Kind EventKind
	Item *domain.CartLineItem
}

// Store owns the cart state. The persisted copy under storage.CartKey is the
// source of truth across processes; call Load on every (re)entry.
type Store struct {
	mu          sync.Mutex
	storage     storage.Storage
	log         *slog.Logger
	items       []domain.CartLineItem
	subscribers []func(Event)
}

// NewStore creates an empty cart backed by s. Call Load to restore saved state.
func NewStore(s storage.Storage, log *slog.Logger) *Store {
	if log == nil {
		log = logger.Discard()
	}
	return &Store{storage: s, log: log}
}

// Subscribe registers fn for every mutation event.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Load replaces the in-memory cart with the persisted one. A missing or
// unreadable cart loads as empty.
func (s *Store) Load(ctx context.Context) {
	items, err := s.readPersisted(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "cart load failed, starting empty", slog.Any("error", err))
		items = nil
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	s.publish(Event{Kind: EventLoaded})
}

// Add increments the line for (product, color, size) or appends a new one.
func (s *Store) Add(ctx context.Context, p domain.Product, sel domain.Selection) domain.CartLineItem {
	sel = sel.Normalized()
	id := domain.CartItemID(p.ID, sel)

	s.mu.Lock()
	var line domain.CartLineItem
	if i := s.indexOf(id); i >= 0 {
		s.items[i].Quantity++
		line = s.items[i]
	} else {
		line = domain.CartLineItem{
			CartItemID: id,
			ProductID:  p.ID,
			Name:       p.Name,
			Price:      p.Price,
			Img:        p.Img,
			Color:      sel.Color,
			Size:       sel.Size,
			Quantity:   1,
		}
		s.items = append(s.items, line)
	}
	s.mu.Unlock()

	s.persistQuietly(ctx)
	s.publish(Event{Kind: EventAdded, Item: &line})
	return line
}

// Remove drops the line with the given id. Unknown ids are a no-op and do not
// touch storage.
func (s *Store) Remove(ctx context.Context, cartItemID string) bool {
	s.mu.Lock()
	i := s.indexOf(cartItemID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.mu.Unlock()

	s.persistQuietly(ctx)
	s.publish(Event{Kind: EventRemoved, Item: &removed})
	return true
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.persistQuietly(ctx)
	s.publish(Event{Kind: EventCleared})
}

// Items returns a copy of the lines in first-add order.
func (s *Store) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total is the sum of price times quantity.
func (s *Store) Total() decimal.Decimal {
	return domain.SumItems(s.Items())
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Persist writes the full line list to storage.
func (s *Store) Persist(ctx context.Context) error {
	items := s.Items()
	if items == nil {
		items = []domain.CartLineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.storage.Set(ctx, storage.CartKey, data); err != nil {
		return fmt.Errorf("persist cart failed: %w", err)
	}
	return nil
}

// persistQuietly keeps the cart usable in memory when storage is unavailable.
func (s *Store) persistQuietly(ctx context.Context) {
	if err := s.Persist(ctx); err != nil {
		s.log.WarnContext(ctx, "cart not persisted", slog.Any("error", err))
	}
}

func (s *Store) readPersisted(ctx context.Context) ([]domain.CartLineItem, error) {
	data, err := s.storage.Get(ctx, storage.CartKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []domain.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return items, nil
}

func (s *Store) indexOf(cartItemID string) int {
	for i := range s.items {
		if s.items[i].CartItemID == cartItemID {
			return i
		}
	}
	return -1
}

func (s *Store) publish(e Event) {
	s.mu.Lock()
	subs := make([]func(Event), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}
