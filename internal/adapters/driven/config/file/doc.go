// Package file provides the TOML configuration store.
//
// The file lives at ~/.zim-mcp/config.toml unless another path is given.
// Tables are flattened into dot-notation keys on load and nested again on
// save, so [search] max_results = 50 is read as "search.max_results".
package file
