/*
Package session ties one document to its command history, persistence
gateway, audit trail, and sync subscription. There is no process-global
editor state: every open document is an explicit Session value, and tests
can run many of them side by side.

A Session serializes all access to its history. The underlying History is
single-owner by contract; the session's mutex is what lets the autosaver
goroutine snapshot safely while the caller keeps editing.
*/
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/draftbench/draftbench/internal/logging"
	"github.com/draftbench/draftbench/pkg/audit"
	"github.com/draftbench/draftbench/pkg/command"
	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/history"
	"github.com/draftbench/draftbench/pkg/persistence"
	"github.com/draftbench/draftbench/pkg/ports"
	"github.com/draftbench/draftbench/pkg/registry"
)

// Session is one open document with its full editing machinery.
type Session struct {
	id  string
	doc ports.Document

	history  *history.History
	registry *registry.Registry
	trail    *audit.Trail

	gateway   *persistence.Gateway
	autosaver *persistence.Autosaver

	syncCh   ports.SyncChannel
	onRemote func(domain.SyncMessage)

	logger *slog.Logger

	mu          sync.Mutex
	lastSeen    uint64
	cancelSync  func()
	unsubscribe func()
	closed      bool
}

// Option configures a Session.
type Option func(*Session)

// WithID pins the session ID instead of generating one. The ID tags audit
// entries and sync messages.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithLogger routes session activity to a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithHistory replaces the default history (for custom size or merge
// window).
func WithHistory(h *history.History) Option {
	return func(s *Session) { s.history = h }
}

// WithRegistry replaces the default registry. The default carries all
// builtin command kinds.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithAudit replaces the default audit trail.
func WithAudit(t *audit.Trail) Option {
	return func(s *Session) { s.trail = t }
}

// WithGateway enables persistence. The session autosaves after every
// history transition, debounced.
func WithGateway(g *persistence.Gateway, autosaveOpts ...persistence.AutosaveOption) Option {
	return func(s *Session) {
		s.gateway = g
		s.autosaver = persistence.NewAutosaver(g, s.snapshot, autosaveOpts...)
	}
}

// WithSyncChannel subscribes the session to sibling updates. Own-origin and
// stale messages are dropped; the rest reach the handler.
func WithSyncChannel(ch ports.SyncChannel, onRemote func(domain.SyncMessage)) Option {
	return func(s *Session) {
		s.syncCh = ch
		s.onRemote = onRemote
	}
}

// New creates a session over a document.
func New(doc ports.Document, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		doc:    doc,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = history.New()
	}
	if s.registry == nil {
		s.registry = registry.New()
		registry.RegisterDefaults(s.registry)
	}
	if s.trail == nil {
		s.trail = audit.New(s.id)
	}

	if s.autosaver != nil {
		s.unsubscribe = s.history.Subscribe(func(domain.HistoryEvent) {
			s.autosaver.Notify()
		})
	}
	if s.syncCh != nil {
		s.subscribeSync()
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Document returns the document this session edits.
func (s *Session) Document() ports.Document { return s.doc }

// History exposes the underlying history for state queries (CanUndo,
// sizes). Mutations must go through the session.
func (s *Session) History() *history.History { return s.history }

// Audit returns the session's audit trail.
func (s *Session) Audit() *audit.Trail { return s.trail }

// Execute runs a command through the history and records the outcome in the
// audit trail. Failed commands leave the document and stacks untouched but
// are still audited.
func (s *Session) Execute(cmd command.Command) error {
	s.mu.Lock()
	err := s.history.Execute(cmd)
	s.mu.Unlock()

	s.audit(audit.ActionExecute, cmd, err)
	return err
}

// Undo reverts the most recent command. Returns false when there is nothing
// to undo.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	cmd, ok := s.history.PeekUndo()
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	undone, err := s.history.Undo()
	s.mu.Unlock()

	if undone || err != nil {
		s.audit(audit.ActionUndo, cmd, err)
	}
	return undone, err
}

// Redo re-applies the most recently undone command. Returns false when the
// redo stack is empty.
func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	cmd, ok := s.history.PeekRedo()
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	redone, err := s.history.Redo()
	s.mu.Unlock()

	if redone || err != nil {
		s.audit(audit.ActionRedo, cmd, err)
	}
	return redone, err
}

// Clear empties both stacks. The cleared state autosaves like any other
// transition.
func (s *Session) Clear() {
	s.mu.Lock()
	s.history.Clear()
	s.mu.Unlock()
}

// Load restores the history from the persistence gateway. Without a gateway
// it is a no-op factory result.
func (s *Session) Load(ctx context.Context) persistence.LoadResult {
	if s.gateway == nil {
		return persistence.LoadResult{Source: persistence.SourceFactory, Success: true}
	}

	result := s.gateway.Load(ctx)

	s.mu.Lock()
	s.history.Restore(result.Snapshot, func(sc domain.SerializedCommand) command.Command {
		return s.registry.Deserialize(sc, s.doc)
	})
	s.mu.Unlock()

	s.logger.Info("history loaded",
		"source", result.Source,
		"undo", len(result.Snapshot.UndoStack),
		"redo", len(result.Snapshot.RedoStack))
	return result
}

// Flush forces any pending autosave to disk now.
func (s *Session) Flush() {
	if s.autosaver != nil {
		s.autosaver.Flush()
	}
}

// Close flushes pending persistence and tears down subscriptions. The
// session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancelSync := s.cancelSync
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if s.autosaver != nil {
		s.autosaver.Close()
	}
	if cancelSync != nil {
		cancelSync()
	}
}

// snapshot is the autosaver's capture callback.
func (s *Session) snapshot() domain.HistorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Serialize()
}

func (s *Session) audit(action audit.Action, cmd command.Command, err error) {
	entry := audit.Entry{
		CommandID:         cmd.ID(),
		Kind:              cmd.Kind(),
		Description:       cmd.Name(),
		Action:            action,
		AffectedEntityIDs: cmd.AffectedEntities(),
		Success:           err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.trail.Log(entry)
}

func (s *Session) subscribeSync() {
	ctx, cancel := context.WithCancel(context.Background())
	msgs, stop, err := s.syncCh.Subscribe(ctx)
	if err != nil {
		cancel()
		s.logger.Warn("sync subscription failed", "err", err)
		return
	}
	s.cancelSync = func() {
		stop()
		cancel()
	}

	go func() {
		for msg := range msgs {
			if msg.Origin == s.id {
				continue
			}
			s.mu.Lock()
			stale := msg.Version <= s.lastSeen
			if !stale {
				s.lastSeen = msg.Version
			}
			s.mu.Unlock()
			if stale {
				s.logger.Debug("dropping stale sync message",
					"origin", msg.Origin, "version", msg.Version)
				continue
			}
			if s.onRemote != nil {
				s.onRemote(msg)
			}
		}
	}()
}
