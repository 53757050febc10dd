package middleware

import "github.com/draftbench/draftbench/pkg/ports"

// Middleware allows wrapping a DurableStore to add behavior.
type Middleware func(ports.DurableStore) ports.DurableStore

// Chain composes middlewares so the first listed is the outermost wrapper.
func Chain(store ports.DurableStore, middlewares ...Middleware) ports.DurableStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
