package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/draftbench/draftbench"
	"github.com/draftbench/draftbench/internal/logging"
	badgerstore "github.com/draftbench/draftbench/pkg/adapters/badger"
	filestore "github.com/draftbench/draftbench/pkg/adapters/file"
	"github.com/draftbench/draftbench/pkg/adapters/memory"
	redisstore "github.com/draftbench/draftbench/pkg/adapters/redis"
	"github.com/draftbench/draftbench/pkg/audit"
	"github.com/draftbench/draftbench/pkg/history"
	"github.com/draftbench/draftbench/pkg/persistence"
	"github.com/draftbench/draftbench/pkg/ports"
)

// NewLogger builds the CLI logger from config.
func NewLogger(cfg LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.JSON {
		return logging.NewJSON(os.Stderr, level)
	}
	return logging.New(level)
}

// NewStore builds the configured durable store. The returned cleanup
// releases backend resources and is safe to call once.
func NewStore(cfg StoreConfig) (ports.DurableStore, func(), error) {
	switch cfg.Backend {
	case "memory":
		return memory.NewStore(), func() {}, nil
	case "file":
		return filestore.New(filepath.Join(cfg.DataDir, "state")), func() {}, nil
	case "redis":
		store := redisstore.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		return store, func() {}, nil
	case "badger":
		store, err := badgerstore.Open(filepath.Join(cfg.DataDir, "badger"))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewEditor wires a full editor from config over the given document.
func NewEditor(doc ports.Document, cfg Config, logger *slog.Logger) (*draftbench.Editor, func(), error) {
	store, cleanup, err := NewStore(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	ed := draftbench.New(doc,
		draftbench.WithLogger(logger),
		draftbench.WithStore(store),
		draftbench.WithHistoryOptions(
			history.WithMaxSize(cfg.History.MaxSize),
			history.WithMergeWindow(cfg.History.MergeWindow()),
		),
		draftbench.WithGatewayOptions(
			persistence.WithMaxPersisted(cfg.Autosave.MaxPersisted),
		),
		draftbench.WithAutosaveOptions(
			persistence.WithDebounce(cfg.Autosave.Debounce()),
			persistence.WithRetry(cfg.Autosave.Retries, 250*time.Millisecond),
		),
		draftbench.WithAuditOptions(
			audit.WithMaxEntries(cfg.Audit.MaxEntries),
		),
	)

	teardown := func() {
		ed.Close()
		cleanup()
	}
	return ed, teardown, nil
}
