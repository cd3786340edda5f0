package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nashcompany/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending orders in Redis so they survive relay restarts.
// Keys expire after the retention window, and Take relies on GETDEL so a
// replayed webhook never gets the same order twice.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store that keeps each order for ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl == 0 {
		ttl = PendingRetention
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Save(ctx context.Context, order *domain.PendingOrder) error {
	if order.SessionID == "" {
		return ErrInvalidOrder
	}
	cp := *order
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	data, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("marshal pending order failed: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, orderKey(cp.SessionID), data, r.ttl)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(cp.CreatedAt.Unix()), Member: cp.SessionID})
	if cp.ExternalReference != "" {
		pipe.Set(ctx, refKey(cp.ExternalReference), cp.SessionID, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save pending order failed: %w", err)
	}
	return nil
}

// Take removes the order saved under ref with GETDEL, so only one caller gets it.
func (r *RedisStore) Take(ctx context.Context, ref string) (*domain.PendingOrder, error) {
	sessionID := ref
	id, err := r.client.Get(ctx, refKey(ref)).Result()
	switch {
	case err == nil:
		sessionID = id
	case !errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("redis get reference failed: %w", err)
	}

	data, err := r.client.GetDel(ctx, orderKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis take pending order failed: %w", err)
	}

	var order domain.PendingOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("unmarshal pending order failed: %w", err)
	}

	r.forget(ctx, &order)
	return &order, nil
}

// PurgeOlderThan drops orders whose index score is older than age. Keys also
// expire on their own; this keeps the index and Len accurate.
func (r *RedisStore) PurgeOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age).Unix()
	ids, err := r.client.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%d", cutoff),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("redis range pending orders failed: %w", err)
	}

	purged := 0
	for _, id := range ids {
		order, err := r.Take(ctx, id)
		if errors.Is(err, ErrOrderNotFound) {
			r.client.ZRem(ctx, indexKey, id)
			continue
		}
		if err != nil {
			return purged, err
		}
		if order != nil {
			purged++
		}
	}
	return purged, nil
}

func (r *RedisStore) Len(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count pending orders failed: %w", err)
	}
	return int(n), nil
}

// Close closes the underlying Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) forget(ctx context.Context, order *domain.PendingOrder) {
	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, indexKey, order.SessionID)
	if order.ExternalReference != "" {
		pipe.Del(ctx, refKey(order.ExternalReference))
	}
	_, _ = pipe.Exec(ctx)
}

const indexKey = "pending_orders"

func orderKey(sessionID string) string {
	return fmt.Sprintf("pending_order:%s", sessionID)
}

func refKey(externalReference string) string {
	return fmt.Sprintf("pending_order_ref:%s", externalReference)
}
