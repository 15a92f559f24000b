// Package sqlite provides the public API for the SQLite local store while
// keeping the implementation internal.
//
// Example:
//
//	store, err := sqlite.Open(".larder-db/larder.db")
//	if err != nil { ... }
//	defer store.Close()
package sqlite

import (
	"github.com/mesh-intelligence/larder/internal/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Store is the SQLite-backed local store. It satisfies both query.Executor
// and persist.LocalStore.
type Store = sqlite.Store

// Tx is a transaction over a Store. It satisfies query.Executor, so builder
// chains can run inside a caller-driven transaction scope.
type Tx = sqlite.Tx

// Open opens (creating if needed) the SQLite database at path. Use
// ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	return sqlite.Open(path)
}

// OpenConfig opens the database described by the Config's data directory
// and database file name.
func OpenConfig(cfg types.Config) (*Store, error) {
	return sqlite.OpenConfig(cfg)
}
