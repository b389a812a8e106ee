package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Set caches an extraction result
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, EnrichKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache extraction: %w", err)
	}
	return nil
}

// Get retrieves a cached extraction result, ok is false on a miss
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, EnrichKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil // Cache miss
		}
		return "", false, fmt.Errorf("failed to get cached extraction: %w", err)
	}
	return v, true, nil
}

// Count returns the number of cached results. It scans the keyspace, only
// meant for the operational endpoints.
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixEnrich+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count cache keys: %w", err)
	}
	return n, nil
}
