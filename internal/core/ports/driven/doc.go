// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ArchiveOpener: Opens archive files (SQLite adapter, memory adapter)
//   - Archive / Entry: Read-only access to one opened archive
//   - Normaliser: Markup stripping and scanning for extracted content
//
// # Optional Interfaces
//
//   - Searcher: Full-text search. Archives without a full-text index
//     return domain.ErrSearchUnavailable and search degrades to no results.
//   - ConfigStore: Persisted configuration. Without it only defaults and
//     environment overrides apply.
//   - NormaliserRegistry: Per-MIME-type normalisers. Without it every entry
//     is scanned as markup.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
