// Package sqlite provides the archive-reading capability over SQLite
// archive files.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO. An archive file is a SQLite database holding a
// header row, a metadata table and an entries table. Entry blobs may be
// stored LZ4 or zstd compressed. Archives built with a full-text index
// carry an FTS5 table; those with a title index carry an index on
// entries.title.
//
// # Schema
//
// The schema lives in schema.sql and is embedded at compile time. The
// Builder writes it; the Opener only reads.
//
// # Thread Safety
//
// Archives are opened read-only and immutable. All read operations are
// safe for concurrent use through the database/sql connection pool.
package sqlite
