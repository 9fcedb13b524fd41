package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Its-donkey/shrine-live/internal/ui/livestream"
)

// DefaultRedisKey holds the shared observation.
const DefaultRedisKey = "shrine:livestream:latest"

// RedisClient is the subset of *redis.Client used by RedisFeedStore. Both
// *redis.Client and *redis.ClusterClient satisfy it.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisFeedStore shares the latest observation between server instances.
type RedisFeedStore struct {
	rdb RedisClient
	key string
	ttl time.Duration
}

// NewRedisFeedStore stores observations under key with the given ttl.
func NewRedisFeedStore(rdb RedisClient, key string, ttl time.Duration) *RedisFeedStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisFeedStore{rdb: rdb, key: key, ttl: ttl}
}

// NewRedisClient builds a go-redis client from connection settings.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Load reads the stored observation. A missing key is not an error.
func (s *RedisFeedStore) Load(ctx context.Context) (livestream.Observation, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return livestream.Observation{}, false, nil
	}
	if err != nil {
		return livestream.Observation{}, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	var obs livestream.Observation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return livestream.Observation{}, false, fmt.Errorf("decode observation: %w", err)
	}
	return obs, true, nil
}

// Save writes obs as JSON with the store's ttl.
func (s *RedisFeedStore) Save(ctx context.Context, obs livestream.Observation) error {
	payload, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("encode observation: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
