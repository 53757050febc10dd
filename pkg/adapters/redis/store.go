// Package redis implements the durable store and the sync channel on
// Redis, for editors whose sessions span processes or hosts.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/draftbench/draftbench/pkg/domain"
)

// Store implements ports.DurableStore on a Redis client.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets an expiration on stored values. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix sets the Redis key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a store over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "draftbench:state:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) redisKey(key string) string {
	return s.prefix + key
}

// Get reads the value for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}
	return val, nil
}

// Set writes the value. A maxmemory refusal surfaces as the quota error so
// callers know not to retry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.redisKey(key), value, s.ttl).Err(); err != nil {
		if strings.Contains(err.Error(), "OOM") {
			return domain.ErrQuotaExceeded
		}
		return fmt.Errorf("failed to write to redis: %w", err)
	}
	return nil
}

// Delete removes the key. Absent keys are a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// Keys lists stored keys under the prefix, with the prefix stripped.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan redis keys: %w", err)
	}
	return keys, nil
}

// Clear removes every key under the prefix.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Available reports whether the server answers a ping.
func (s *Store) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err() == nil
}
