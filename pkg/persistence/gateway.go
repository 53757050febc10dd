/*
Package persistence owns the load/save pipeline between a command history
and a durable store: schema validation, sequential migration with backups,
best-effort coercion of damaged data, debounced auto-save, and diff
broadcasting to sibling sessions.

Loading never fails: whatever is wrong with the persisted record, the editor
opens with the best snapshot the gateway can produce, worst case factory
defaults.
*/
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/draftbench/draftbench/internal/logging"
	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/ports"
)

// DefaultKey is the well-known store key for persisted history.
const DefaultKey = "draftbench:history"

// Source tells the caller where a loaded snapshot came from.
type Source string

const (
	SourceFactory  Source = "factory"
	SourceStorage  Source = "storage"
	SourceMigrated Source = "migrated"
	SourceCoerced  Source = "coerced"
)

// LoadResult is what Load always returns — there is no error path.
type LoadResult struct {
	Snapshot domain.HistorySnapshot
	Source   Source

	// Success is false only when an unexpected failure forced factory
	// defaults (a migration gap, a store panic). A clean first run is a
	// successful factory load.
	Success  bool
	Warnings []string
}

// SaveResult reports the outcome of a save.
type SaveResult struct {
	// Verified is false when the post-write read-back did not match what
	// was written (logged as a warning, not fatal).
	Verified bool

	// RolledBack reports whether restoring the previous value succeeded
	// after a failed write. Only meaningful when Save returned an error.
	RolledBack bool
}

// Gateway mediates between the history and a durable store.
type Gateway struct {
	store        ports.DurableStore
	key          string
	maxPersisted int
	migrations   Migrations
	sync         ports.SyncChannel
	origin       string
	version      uint64
	validate     *validator.Validate
	logger       *slog.Logger

	// mu serializes the pipeline: the autosaver goroutine and the
	// session's explicit Load/Flush calls may overlap.
	mu            sync.Mutex
	lastPersisted *domain.HistorySnapshot
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithKey overrides the store key.
func WithKey(key string) Option {
	return func(g *Gateway) { g.key = key }
}

// WithMaxPersisted caps how many commands per stack are written out.
func WithMaxPersisted(n int) Option {
	return func(g *Gateway) { g.maxPersisted = n }
}

// WithMigrations replaces the migration chain.
func WithMigrations(m Migrations) Option {
	return func(g *Gateway) { g.migrations = m }
}

// WithSyncChannel publishes a field-level diff after each successful save.
func WithSyncChannel(ch ports.SyncChannel, origin string) Option {
	return func(g *Gateway) {
		g.sync = ch
		g.origin = origin
	}
}

// WithLogger routes warnings to a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// New creates a gateway over a store. A nil store disables persistence
// entirely; Load returns factory defaults and Save reports the store as
// unavailable.
func New(store ports.DurableStore, opts ...Option) *Gateway {
	g := &Gateway{
		store:        store,
		key:          DefaultKey,
		maxPersisted: 50,
		migrations:   DefaultMigrations(),
		validate:     validator.New(),
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Available reports whether saves can reach a backend.
func (g *Gateway) Available() bool {
	return g.store != nil && g.store.Available()
}

// LastPersisted returns the most recently saved snapshot, if any.
func (g *Gateway) LastPersisted() *domain.HistorySnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastPersisted
}

// Load runs the full read pipeline. It never returns an error: absent data
// yields factory defaults, an untagged record yields defaults with a
// warning, an outdated record is backed up and migrated, an invalid record
// is coerced field-by-field against defaults, and anything unexpected falls
// back to defaults with Success=false.
func (g *Gateway) Load(ctx context.Context) (result LoadResult) {
	g.mu.Lock()
	defer g.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			result = g.factory(false, fmt.Sprintf("load panicked: %v", r))
		}
	}()

	if !g.Available() {
		return g.factory(true, "durable store unavailable, persistence disabled")
	}

	raw, err := g.store.Get(ctx, g.key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return g.factory(true)
		}
		return g.factory(false, fmt.Sprintf("store read failed: %v", err))
	}

	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return g.factory(false, fmt.Sprintf("persisted history is not valid JSON: %v", err))
	}

	version, ok := recordVersion(record)
	if !ok {
		return g.factory(true, "persisted history has no version tag, starting fresh")
	}

	source := SourceStorage
	var warnings []string

	if version < domain.SnapshotVersion {
		if err := g.backup(ctx, raw, version); err != nil {
			warnings = append(warnings, fmt.Sprintf("could not write pre-migration backup: %v", err))
		}

		migrated, err := g.migrations.Apply(record, version, domain.SnapshotVersion)
		if err != nil {
			// A gap in the chain means we cannot upgrade safely.
			return g.factory(false, fmt.Sprintf("migration failed: %v", err))
		}
		record = migrated
		source = SourceMigrated
	}

	snap, err := decodeSnapshot(record)
	if err == nil {
		err = g.validateSnapshot(snap)
	}
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("schema validation failed, coercing against defaults: %v", err))
		snap = g.coerce(record)
		source = SourceCoerced
	}

	snap = g.cap(snap)
	copied := snap
	g.lastPersisted = &copied
	return LoadResult{Snapshot: snap, Source: source, Success: true, Warnings: warnings}
}

// Save runs the full write pipeline: validate, remember the old value, write,
// verify by read-back, roll back on failure, and broadcast a diff on
// success.
func (g *Gateway) Save(ctx context.Context, snap domain.HistorySnapshot) (SaveResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.Available() {
		return SaveResult{}, domain.ErrStoreUnavailable
	}

	snap = g.cap(snap)
	if err := g.validateSnapshot(snap); err != nil {
		return SaveResult{}, fmt.Errorf("refusing to persist invalid snapshot: %w", err)
	}

	oldRaw, getErr := g.store.Get(ctx, g.key)
	hadOld := getErr == nil

	raw, err := json.Marshal(snap)
	if err != nil {
		return SaveResult{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := g.store.Set(ctx, g.key, raw); err != nil {
		res := SaveResult{}
		if hadOld {
			if rbErr := g.store.Set(ctx, g.key, oldRaw); rbErr != nil {
				g.logger.Error("rollback after failed save also failed", "key", g.key, "err", rbErr)
			} else {
				res.RolledBack = true
			}
		}
		return res, fmt.Errorf("failed to persist history: %w", err)
	}

	res := SaveResult{Verified: true}
	if readBack, err := g.store.Get(ctx, g.key); err != nil || !bytes.Equal(readBack, raw) {
		res.Verified = false
		g.logger.Warn("post-save verification mismatch", "key", g.key, "err", err)
	}

	g.broadcast(ctx, oldRaw, hadOld, snap)

	copied := snap
	g.lastPersisted = &copied
	return res, nil
}

// Reset deletes the persisted record.
func (g *Gateway) Reset(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.Available() {
		return domain.ErrStoreUnavailable
	}
	g.lastPersisted = nil
	return g.store.Delete(ctx, g.key)
}

func (g *Gateway) broadcast(ctx context.Context, oldRaw []byte, hadOld bool, snap domain.HistorySnapshot) {
	if g.sync == nil {
		return
	}

	var old *domain.HistorySnapshot
	if hadOld {
		var parsed domain.HistorySnapshot
		if err := json.Unmarshal(oldRaw, &parsed); err == nil {
			old = &parsed
		}
	}

	diff := domain.DiffSnapshots(old, &snap)
	if diff == nil {
		return
	}

	g.version++
	msg := domain.SyncMessage{
		Origin:    g.origin,
		Version:   g.version,
		Diff:      diff,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := g.sync.Publish(ctx, msg); err != nil {
		g.logger.Warn("failed to broadcast history diff", "err", err)
	}
}

// cap trims both stacks to the maxPersisted most-recent entries.
func (g *Gateway) cap(snap domain.HistorySnapshot) domain.HistorySnapshot {
	if g.maxPersisted <= 0 {
		return snap
	}
	if n := len(snap.UndoStack); n > g.maxPersisted {
		snap.UndoStack = snap.UndoStack[n-g.maxPersisted:]
	}
	if n := len(snap.RedoStack); n > g.maxPersisted {
		snap.RedoStack = snap.RedoStack[n-g.maxPersisted:]
	}
	return snap
}

func (g *Gateway) validateSnapshot(snap domain.HistorySnapshot) error {
	if err := g.validate.Struct(snap); err != nil {
		return err
	}
	if snap.Version != domain.SnapshotVersion {
		return fmt.Errorf("snapshot version %d does not match current schema v%d", snap.Version, domain.SnapshotVersion)
	}
	for _, sc := range append(append([]domain.SerializedCommand{}, snap.UndoStack...), snap.RedoStack...) {
		if err := g.validate.Struct(sc); err != nil {
			return fmt.Errorf("serialized command %q: %w", sc.ID, err)
		}
	}
	return nil
}

// coerce salvages whatever fields of the record still fit the schema,
// filling the rest from factory defaults. Commands that do not decode into
// a well-formed SerializedCommand are dropped.
func (g *Gateway) coerce(record map[string]any) domain.HistorySnapshot {
	snap := domain.NewHistorySnapshot(time.Now().UnixMilli())

	var partial domain.HistorySnapshot
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &partial,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil || dec.Decode(record) != nil {
		return snap
	}

	for _, sc := range partial.UndoStack {
		if sc.Type != "" && sc.ID != "" {
			snap.UndoStack = append(snap.UndoStack, sc)
		}
	}
	for _, sc := range partial.RedoStack {
		if sc.Type != "" && sc.ID != "" {
			snap.RedoStack = append(snap.RedoStack, sc)
		}
	}
	if partial.Timestamp > 0 {
		snap.Timestamp = partial.Timestamp
	}
	return snap
}

func (g *Gateway) backup(ctx context.Context, raw []byte, version int) error {
	key := fmt.Sprintf("%s.v%d.bak", g.key, version)
	return g.store.Set(ctx, key, raw)
}

func (g *Gateway) factory(success bool, warnings ...string) LoadResult {
	for _, w := range warnings {
		g.logger.Warn("history load degraded", "reason", w)
	}
	return LoadResult{
		Snapshot: domain.NewHistorySnapshot(time.Now().UnixMilli()),
		Source:   SourceFactory,
		Success:  success,
		Warnings: warnings,
	}
}

func recordVersion(record map[string]any) (int, bool) {
	raw, ok := record["version"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func decodeSnapshot(record map[string]any) (domain.HistorySnapshot, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return domain.HistorySnapshot{}, err
	}
	var snap domain.HistorySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.HistorySnapshot{}, err
	}
	if snap.UndoStack == nil {
		snap.UndoStack = []domain.SerializedCommand{}
	}
	if snap.RedoStack == nil {
		snap.RedoStack = []domain.SerializedCommand{}
	}
	return snap, nil
}
