// Package sqlite provides the default persistent vector store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Chunks live in a single table keyed by
// collection; each row carries the chunk text, its msgpack-encoded metadata, the
// embedding as little-endian float32 bytes and the precomputed vector norm.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <data_dir>/index.db.
//
// # Search
//
// Search is an exact scan: every row of the collection is scored by cosine
// similarity and the top k are kept. This is fine for the few hundred thousand
// chunks a document folder produces; use the qdrant store beyond that.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
