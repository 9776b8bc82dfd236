package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"solana-whale-graph/internal/ledger"
)

// Redis caches transfer pages in Redis so multiple server instances share
// one cache. Pages are stored as JSON under the ledger cache key.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis creates a Redis-backed cache and verifies connectivity.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl, prefix: "whalegraph:"}, nil
}

// Get returns the cached page and true on a hit.
func (r *Redis) Get(ctx context.Context, key string) ([]ledger.RawTransfer, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var records []ledger.RawTransfer
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached page: %w", err)
	}
	return records, true, nil
}

// Set stores a page under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, records []ledger.RawTransfer) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}

	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Verify interface compliance at compile time.
var _ ledger.TransferCache = (*Redis)(nil)
