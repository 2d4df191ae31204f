// Package driving defines the operations the MCP server and the CLI call
// on the core: archive discovery and description, search and browsing,
// content extraction, and settings.
//
// internal/core/services implements every interface here. Adapters depend
// on these interfaces only, so tests can swap in services built over the
// in-memory archive adapter.
package driving
