// Package sqlite provides the SQLite-backed metadata store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One row is stored per chunk: the full
// metadata record plus the composite embedding vector as a little-endian float32
// blob, so the vector index can be rebuilt wholesale without re-embedding.
//
// # Schema
//
// The database schema is managed through versioned migrations embedded from the
// migrations/ directory and applied in order at startup.
//
// # Data Location
//
// By default, the database is stored at ~/.sentency/data/metadata.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
