// Package mcp provides an MCP (Model Context Protocol) server adapter for
// zim-mcp. It lets AI assistants list, search and read the archives in
// the configured directory.
package mcp

import "errors"

// Errors returned by Ports.Validate.
var (
	ErrMissingArchiveService = errors.New("mcp: archive service is required")
	ErrMissingSearchService  = errors.New("mcp: search service is required")
	ErrMissingContentService = errors.New("mcp: content service is required")
)

// Tool result statuses.
const (
	statusSuccess = "success"
	statusError   = "error"
)
