package middleware

import (
	"context"
	"strings"

	"github.com/draftbench/draftbench/pkg/ports"
)

type namespaceStore struct {
	next   ports.DurableStore
	prefix string
}

// NewNamespace creates a middleware that prefixes every key, isolating
// multiple documents sharing one backend. Keys lists only entries under the
// prefix, with the prefix stripped, and Clear removes only those entries.
func NewNamespace(prefix string) Middleware {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return func(next ports.DurableStore) ports.DurableStore {
		return &namespaceStore{next: next, prefix: prefix}
	}
}

func (s *namespaceStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.next.Get(ctx, s.prefix+key)
}

func (s *namespaceStore) Set(ctx context.Context, key string, value []byte) error {
	return s.next.Set(ctx, s.prefix+key, value)
}

func (s *namespaceStore) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, s.prefix+key)
}

func (s *namespaceStore) Keys(ctx context.Context) ([]string, error) {
	all, err := s.next.Keys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, s.prefix) {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
	}
	return keys, nil
}

func (s *namespaceStore) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.next.Delete(ctx, s.prefix+k); err != nil {
			return err
		}
	}
	return nil
}

func (s *namespaceStore) Available() bool {
	return s.next.Available()
}
