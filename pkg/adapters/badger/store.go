// Package badger implements the durable store on an embedded BadgerDB,
// for desktop installs that want crash-safe persistence without an external
// server.
package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/draftbench/draftbench/pkg/domain"
)

// Store implements ports.DurableStore over a BadgerDB instance.
type Store struct {
	db *badgerdb.DB
}

// Open creates or opens a database at dir.
func Open(dir string) (*Store, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a non-persistent database, for tests.
func OpenInMemory() (*Store, error) {
	opts := badgerdb.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database. The store is unusable afterwards.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get reads the value for key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read from badger: %w", err)
	}
	return value, nil
}

// Set writes the value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrTxnTooBig) {
			return domain.ErrQuotaExceeded
		}
		return fmt.Errorf("failed to write to badger: %w", err)
	}
	return nil
}

// Delete removes the key. Absent keys are a no-op.
func (s *Store) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete from badger: %w", err)
	}
	return nil
}

// Keys lists all stored keys.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	keys := []string{}
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list badger keys: %w", err)
	}
	return keys, nil
}

// Clear removes every stored key.
func (s *Store) Clear(_ context.Context) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("failed to clear badger: %w", err)
	}
	return nil
}

// Available reports whether the database is open.
func (s *Store) Available() bool {
	return s.db != nil && !s.db.IsClosed()
}
