/*
Package registry maps serialized command kinds to factories so persisted
history can be reconstructed after a restart.

The table is assembled once at startup (RegisterDefaults); there is no lazy
or dynamic factory resolution. Unknown kinds never fail a load — they
deserialize to nil so history written by a newer build degrades gracefully.
*/
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/draftbench/draftbench/internal/logging"
	"github.com/draftbench/draftbench/pkg/command"
	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/ports"
)

// Factory reconstructs a command from its serialized form against a
// document.
type Factory func(domain.SerializedCommand, ports.Document) (command.Command, error)

// Registry manages the kind→factory table.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *slog.Logger
}

// Option configures the registry.
type Option func(*Registry)

// WithLogger routes overwrite warnings and factory failures to a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a factory for a kind. An existing registration is silently
// overwritten with a warning — tests and plugins rely on being able to
// replace built-ins.
func (r *Registry) Register(kind string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		r.logger.Warn("overwriting registered command factory", "kind", kind)
	}
	r.factories[kind] = factory
}

// Unregister removes a kind. Unknown kinds are a no-op.
func (r *Registry) Unregister(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, kind)
}

// IsRegistered reports whether a factory exists for the kind.
func (r *Registry) IsRegistered(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// Kinds lists the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Deserialize reconstructs a command. It never returns an error to the
// caller: an unknown kind or a failing factory yields nil (and a log line),
// because one unreadable command must not block loading the rest of the
// history.
func (r *Registry) Deserialize(sc domain.SerializedCommand, doc ports.Document) command.Command {
	r.mu.RLock()
	factory, ok := r.factories[sc.Type]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("no factory for serialized command", "kind", sc.Type, "id", sc.ID)
		return nil
	}

	cmd, err := factory(sc, doc)
	if err != nil {
		r.logger.Warn("command factory failed", "kind", sc.Type, "id", sc.ID, "err", err)
		return nil
	}
	return cmd
}

// RegisterDefaults installs the static factory table for every built-in
// command kind. The compound factory recurses through Deserialize, dropping
// children whose kind is unknown — partial restoration beats total failure.
func RegisterDefaults(r *Registry) {
	r.Register(command.KindCreate, command.DeserializeCreate)
	r.Register(command.KindDelete, command.DeserializeDelete)
	r.Register(command.KindMove, command.DeserializeMove)
	r.Register(command.KindRotate, command.DeserializeRotate)
	r.Register(command.KindJoin, command.DeserializeJoin)
	r.Register(command.KindMoveVertex, command.DeserializeMoveVertex)
	r.Register(command.KindInsertVertex, command.DeserializeInsertVertex)
	r.Register(command.KindRemoveVertex, command.DeserializeRemoveVertex)

	r.Register(command.KindCompound, func(sc domain.SerializedCommand, doc ports.Document) (command.Command, error) {
		nested, err := command.NestedCommands(sc)
		if err != nil {
			return nil, fmt.Errorf("compound %s: %w", sc.ID, err)
		}
		children := make([]command.Command, 0, len(nested))
		for _, childSC := range nested {
			if child := r.Deserialize(childSC, doc); child != nil {
				children = append(children, child)
			}
		}
		return command.RestoreCompound(sc, children), nil
	})
}
