package draftbench

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/draftbench/draftbench/pkg/audit"
	"github.com/draftbench/draftbench/pkg/command"
	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/history"
	"github.com/draftbench/draftbench/pkg/persistence"
	"github.com/draftbench/draftbench/pkg/ports"
	"github.com/draftbench/draftbench/pkg/session"
)

// Editor is the high-level entry point for the library. It wires a document
// to a session with history, optional persistence, audit, and sync, and
// exposes a simplified API for consumers.
type Editor struct {
	session *session.Session

	store        ports.DurableStore
	syncCh       ports.SyncChannel
	onRemote     func(msg SyncMessage)
	historyOpts  []history.Option
	gatewayOpts  []persistence.Option
	autosaveOpts []persistence.AutosaveOption
	auditOpts    []audit.Option
	logger       *slog.Logger
	sessionID    string
}

// SyncMessage re-exports the sync payload so consumers of the facade do not
// need to import the domain package.
type SyncMessage = domain.SyncMessage

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithStore enables persistence on the given backend.
func WithStore(store ports.DurableStore) Option {
	return func(e *Editor) { e.store = store }
}

// WithSyncChannel connects the editor to sibling sessions. The handler
// receives remote history diffs; nil means log-only.
func WithSyncChannel(ch ports.SyncChannel, onRemote func(SyncMessage)) Option {
	return func(e *Editor) {
		e.syncCh = ch
		e.onRemote = onRemote
	}
}

// WithHistoryOptions forwards options to the underlying history (stack
// size, merge window, metrics).
func WithHistoryOptions(opts ...history.Option) Option {
	return func(e *Editor) { e.historyOpts = append(e.historyOpts, opts...) }
}

// WithGatewayOptions forwards options to the persistence gateway.
func WithGatewayOptions(opts ...persistence.Option) Option {
	return func(e *Editor) { e.gatewayOpts = append(e.gatewayOpts, opts...) }
}

// WithAutosaveOptions forwards options to the autosaver.
func WithAutosaveOptions(opts ...persistence.AutosaveOption) Option {
	return func(e *Editor) { e.autosaveOpts = append(e.autosaveOpts, opts...) }
}

// WithAuditOptions forwards options to the audit trail.
func WithAuditOptions(opts ...audit.Option) Option {
	return func(e *Editor) { e.auditOpts = append(e.auditOpts, opts...) }
}

// WithLogger sets a structured logger for all components.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) { e.logger = logger }
}

// WithSessionID pins the session ID (default: random).
func WithSessionID(id string) Option {
	return func(e *Editor) { e.sessionID = id }
}

// New creates an editor over a document. Without WithStore the editor is
// memory-only: fully functional history, no persistence.
func New(doc ports.Document, opts ...Option) *Editor {
	e := &Editor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessionID == "" {
		e.sessionID = uuid.NewString()
	}

	sessionOpts := []session.Option{
		session.WithID(e.sessionID),
		session.WithHistory(buildHistory(e)),
		session.WithAudit(audit.New(e.sessionID, e.auditOpts...)),
	}
	if e.logger != nil {
		sessionOpts = append(sessionOpts, session.WithLogger(e.logger))
	}
	if e.store != nil {
		gatewayOpts := e.gatewayOpts
		if e.syncCh != nil {
			gatewayOpts = append(gatewayOpts, persistence.WithSyncChannel(e.syncCh, e.sessionID))
		}
		if e.logger != nil {
			gatewayOpts = append(gatewayOpts, persistence.WithLogger(e.logger))
		}
		gateway := persistence.New(e.store, gatewayOpts...)
		sessionOpts = append(sessionOpts, session.WithGateway(gateway, e.autosaveOpts...))
	}
	if e.syncCh != nil {
		sessionOpts = append(sessionOpts, session.WithSyncChannel(e.syncCh, e.onRemote))
	}

	e.session = session.New(doc, sessionOpts...)
	return e
}

func buildHistory(e *Editor) *history.History {
	opts := e.historyOpts
	if e.logger != nil {
		opts = append(opts, history.WithLogger(e.logger))
	}
	return history.New(opts...)
}

// Execute runs a command against the document through the history.
func (e *Editor) Execute(cmd command.Command) error { return e.session.Execute(cmd) }

// Undo reverts the most recent command.
func (e *Editor) Undo() (bool, error) { return e.session.Undo() }

// Redo re-applies the most recently undone command.
func (e *Editor) Redo() (bool, error) { return e.session.Redo() }

// Clear empties the undo and redo stacks.
func (e *Editor) Clear() { e.session.Clear() }

// Load restores persisted history, if a store is configured.
func (e *Editor) Load(ctx context.Context) persistence.LoadResult { return e.session.Load(ctx) }

// Flush forces pending persistence to disk.
func (e *Editor) Flush() { e.session.Flush() }

// Close flushes and tears the editor down.
func (e *Editor) Close() { e.session.Close() }

// Session exposes the underlying session.
func (e *Editor) Session() *session.Session { return e.session }

// History exposes the underlying history for state queries.
func (e *Editor) History() *history.History { return e.session.History() }

// Audit exposes the audit trail.
func (e *Editor) Audit() *audit.Trail { return e.session.Audit() }
