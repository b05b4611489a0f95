package blocklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arenalab/ipsentinel/models"
)

const (
	failureKeyPrefix = "ipsentinel:failures:"
	blockKeyPrefix   = "ipsentinel:block:"
)

// RedisStore is the shared-cache Store backend for multi-instance
// deployments. Failure counters use INCR with a window-sized TTL (the window
// restarts from the most recent failure, a coarser approximation of the
// in-memory rolling window); block records are JSON values expired by Redis
// itself when the block carries an expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) IncrementFailures(ctx context.Context, ip string, win time.Duration) (int, error) {
	key := failureKeyPrefix + ip

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if err := s.client.Expire(ctx, key, win).Err(); err != nil {
		return int(count), fmt.Errorf("expire %s: %w", key, err)
	}
	return int(count), nil
}

func (s *RedisStore) FailureCount(ctx context.Context, ip string) (int, error) {
	count, err := s.client.Get(ctx, failureKeyPrefix+ip).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get failure count for %s: %w", ip, err)
	}
	return count, nil
}

func (s *RedisStore) ResetFailures(ctx context.Context, ip string) error {
	return s.client.Del(ctx, failureKeyPrefix+ip).Err()
}

func (s *RedisStore) GetBlock(ctx context.Context, ip string) (*models.BlockRecord, error) {
	data, err := s.client.Get(ctx, blockKeyPrefix+ip).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get block for %s: %w", ip, err)
	}

	var rec models.BlockRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode block for %s: %w", ip, err)
	}

	// The TTL normally removes expired blocks; re-check in case the record
	// was written by an instance with a skewed clock.
	if rec.Expired(time.Now()) {
		_ = s.client.Del(ctx, blockKeyPrefix+ip).Err()
		return nil, models.ErrNotFound
	}
	return &rec, nil
}

func (s *RedisStore) PutBlock(ctx context.Context, record *models.BlockRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode block for %s: %w", record.IP, err)
	}

	var ttl time.Duration // 0 = no expiry
	if record.ExpiresAt != nil {
		ttl = time.Until(*record.ExpiresAt)
		if ttl <= 0 {
			return nil // already expired, nothing to store
		}
	}
	return s.client.Set(ctx, blockKeyPrefix+record.IP, data, ttl).Err()
}

func (s *RedisStore) DeleteBlock(ctx context.Context, ip string) (bool, error) {
	deleted, err := s.client.Del(ctx, blockKeyPrefix+ip).Result()
	if err != nil {
		return false, fmt.Errorf("delete block for %s: %w", ip, err)
	}
	return deleted > 0, nil
}

func (s *RedisStore) ListBlocks(ctx context.Context) ([]*models.BlockRecord, error) {
	var blocks []*models.BlockRecord
	now := time.Now()

	iter := s.client.Scan(ctx, 0, blockKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", iter.Val(), err)
		}

		var rec models.BlockRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", iter.Val(), err)
		}
		if rec.Expired(now) {
			continue
		}
		blocks = append(blocks, &rec)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan blocks: %w", err)
	}
	return blocks, nil
}

// Sweep deletes any lingering expired block records. Redis TTLs already
// remove the common case.
func (s *RedisStore) Sweep(ctx context.Context) (int, error) {
	removed := 0
	now := time.Now()

	iter := s.client.Scan(ctx, 0, blockKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var rec models.BlockRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if rec.Expired(now) {
			if s.client.Del(ctx, iter.Val()).Err() == nil {
				removed++
			}
		}
	}
	return removed, iter.Err()
}
