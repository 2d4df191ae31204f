package mcp

import (
	"fmt"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Archives lists and describes archives.
	Archives driving.ArchiveService

	// Search provides search and browse capabilities.
	Search driving.SearchService

	// Content extracts entry content.
	Content driving.ContentService

	// Settings bounds tool inputs and call durations.
	Settings domain.Settings
}

// Validate ensures all required ports are set and the settings are usable.
func (p *Ports) Validate() error {
	if p.Archives == nil {
		return ErrMissingArchiveService
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Content == nil {
		return ErrMissingContentService
	}
	if err := p.Settings.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
