package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulsesignals/contract-relay/internal/constants"
	"github.com/pulsesignals/contract-relay/internal/storage"
)

// Store implements storage.KV and storage.EventLog on top of Redis.
type Store struct {
	client redis.Cmdable
	maxLog int64
}

func NewStore(client redis.Cmdable, maxLog int64) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if maxLog <= 0 {
		maxLog = constants.EventLogMaxLen
	}
	return &Store{client: client, maxLog: maxLog}, nil
}

var (
	_ storage.KV       = (*Store)(nil)
	_ storage.EventLog = (*Store)(nil)
)

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

func (s *Store) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("setex %s: %w", key, err)
	}
	return nil
}

func (s *Store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Push prepends onto the event list and trims it to the retention cap in one
// round trip.
func (s *Store) Push(ctx context.Context, payload string) error {
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyEventLog, payload)
	pipe.LTrim(ctx, constants.RedisKeyEventLog, 0, s.maxLog-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return nil
}

func (s *Store) Entries(ctx context.Context) ([]string, error) {
	entries, err := s.client.LRange(ctx, constants.RedisKeyEventLog, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("range event log: %w", err)
	}
	return entries, nil
}

func (s *Store) Hash(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return m, nil
}
