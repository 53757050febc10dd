package memory

import (
	"context"
	"sync"

	"github.com/draftbench/draftbench/pkg/domain"
)

// Store implements ports.DurableStore in memory. Values are copied on write
// and on read so callers can never alias stored bytes.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte

	// quota, when > 0, caps the total stored bytes and makes Set return
	// domain.ErrQuotaExceeded beyond it. Tests use this to exercise the
	// gateway's quota handling.
	quota int
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithQuota caps total stored bytes.
func WithQuota(bytes int) StoreOption {
	return func(s *Store) { s.quota = bytes }
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{data: make(map[string][]byte)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quota > 0 {
		total := len(value)
		for k, v := range s.data {
			if k == key {
				continue
			}
			total += len(v)
		}
		if total > s.quota {
			return domain.ErrQuotaExceeded
		}
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}

func (s *Store) Available() bool {
	return true
}
