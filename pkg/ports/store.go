package ports

import "context"

// DurableStore is the key/value persistence capability behind the
// persistence gateway. Implementations must be safe for concurrent use.
//
// Get never panics; absent keys are reported as domain.ErrKeyNotFound. Set
// must distinguish capacity refusals (domain.ErrQuotaExceeded) from generic
// failures so callers can decide whether a retry is worthwhile.
type DurableStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error

	// Available reports whether the backend is reachable. When false, the
	// gateway disables persistence and the in-memory history keeps
	// working.
	Available() bool
}
