package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/draftbench/draftbench/pkg/ports"
)

type loggingStore struct {
	next   ports.DurableStore
	logger *slog.Logger
}

// NewLogging creates a middleware that logs store operations with their
// duration and outcome at debug level. Failures are logged at warn level.
func NewLogging(logger *slog.Logger) Middleware {
	return func(next ports.DurableStore) ports.DurableStore {
		return &loggingStore{next: next, logger: logger}
	}
}

func (s *loggingStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := s.next.Get(ctx, key)
	s.log("get", key, len(value), start, err)
	return value, err
}

func (s *loggingStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.next.Set(ctx, key, value)
	s.log("set", key, len(value), start, err)
	return err
}

func (s *loggingStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.log("delete", key, 0, start, err)
	return err
}

func (s *loggingStore) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := s.next.Keys(ctx)
	s.log("keys", "", len(keys), start, err)
	return keys, err
}

func (s *loggingStore) Clear(ctx context.Context) error {
	start := time.Now()
	err := s.next.Clear(ctx)
	s.log("clear", "", 0, start, err)
	return err
}

func (s *loggingStore) Available() bool {
	return s.next.Available()
}

func (s *loggingStore) log(op, key string, size int, start time.Time, err error) {
	attrs := []any{"op", op, "duration", time.Since(start)}
	if key != "" {
		attrs = append(attrs, "key", key)
	}
	if size > 0 {
		attrs = append(attrs, "size", size)
	}
	if err != nil {
		attrs = append(attrs, "err", err)
		s.logger.Warn("store operation failed", attrs...)
		return
	}
	s.logger.Debug("store operation", attrs...)
}
