package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces replay records in a shared Redis database.
const redisKeyPrefix = "post402:replay:"

// RedisStore is a Store backed by a shared Redis instance. Every
// gateway instance behind a load balancer sees the same verification
// state, so the session-cookie check never needs the trust-by-format
// fallback that a per-process cache forces on stateless deployments.
//
// Expiry is delegated to Redis key TTLs; Sweep is a no-op kept for
// interface parity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore speaking to addr.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// NewRedisStoreWithClient wraps an existing client, letting callers
// configure pooling and auth themselves.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Has implements Store.
func (s *RedisStore) Has(ctx context.Context, reference, postID string) (bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+reference).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("replay lookup: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return false, fmt.Errorf("replay record corrupt: %w", err)
	}

	if postID != "" && record.PostID != postID {
		return false, nil
	}
	return true, nil
}

// Add implements Store.
func (s *RedisStore) Add(ctx context.Context, reference, postID string, meta *Metadata) error {
	record := Record{
		Reference:  reference,
		VerifiedAt: time.Now().UTC(),
		PostID:     postID,
		Metadata:   meta,
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal replay record: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+reference, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("replay store: %w", err)
	}
	return nil
}

// Sweep implements Store. Redis expires keys itself.
func (s *RedisStore) Sweep(context.Context) error {
	return nil
}

// Size implements Store.
func (s *RedisStore) Size(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 1000).Result()
		if err != nil {
			return 0, fmt.Errorf("replay scan: %w", err)
		}
		count += len(keys)
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
