// Package sqlitestore implements db.Store on top of zombiezen.com/go/sqlite,
// the pure-Go (modernc.org/sqlite backed) driver. A connection pool is
// shared across readers and writers; sqlite's single-writer model means
// concurrent writes simply serialize inside the driver.
package sqlitestore

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"

	"github.com/lwsgs/lwsgs/db"
	"github.com/lwsgs/lwsgs/migrations"

	"zombiezen.com/go/sqlite/sqlitex"
)

// Store is the sqlite-backed implementation of db.Store.
type Store struct {
	pool *sqlitex.Pool
}

var _ db.Store = (*Store)(nil)

// New opens (creating if necessary) the sqlite database at path, applies
// the embedded schema, and returns a ready Store.
func New(path string) (*Store, error) {
	poolSize := runtime.NumCPU()
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := sqlitex.NewPool(fmt.Sprintf("file:%s", path), sqlitex.PoolOptions{
		PoolSize: poolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}

	return NewWithPool(pool)
}

// NewWithPool wraps an already-open pool, applying the embedded schema.
// Tests use this to hand in an in-memory pool built with
// sqlitex.NewPool("file::memory:?cache=shared", ...).
func NewWithPool(pool *sqlitex.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.migrate(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	conn, err := s.pool.Take(context.Background())
	if err != nil {
		return fmt.Errorf("sqlitestore: take conn for migration: %w", err)
	}
	defer s.pool.Put(conn)

	schemaFS := migrations.Schema()
	return fs.WalkDir(schemaFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}
		sqlBytes, err := fs.ReadFile(schemaFS, path)
		if err != nil {
			return fmt.Errorf("sqlitestore: read schema file %s: %w", path, err)
		}
		if err := sqlitex.ExecuteScript(conn, string(sqlBytes), nil); err != nil {
			return fmt.Errorf("sqlitestore: apply schema file %s: %w", path, err)
		}
		return nil
	})
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
