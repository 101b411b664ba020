package status

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces status keys when no prefix is configured
const DefaultRedisPrefix = "passportwatch:"

// redisClient is the subset of *redis.Client the store uses
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// RedisStore keeps the snapshot in Redis so it outlives the process and can
// be read by other tools.
type RedisStore struct {
	client redisClient
	key    string
	ttl    time.Duration
}

// NewRedisStore connects to addr. A zero ttl keeps the key forever.
func NewRedisStore(addr, prefix string, ttl time.Duration) *RedisStore {
	return newRedisStore(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

func newRedisStore(client redisClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, key: prefix + "status", ttl: ttl}
}

// Key returns the Redis key holding the snapshot
func (s *RedisStore) Key() string {
	return s.key
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save implements Store
func (s *RedisStore) Save(ctx context.Context, st Status) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, payload, s.ttl).Err()
}

// Load implements Store
func (s *RedisStore) Load(ctx context.Context) (Status, bool, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Status{}, false, nil
		}
		return Status{}, false, err
	}

	var st Status
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return Status{}, false, err
	}
	return st, true, nil
}
