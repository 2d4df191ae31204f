package driving

import (
	"context"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

// ContentService turns archive entries into bounded, described content.
type ContentService interface {
	// Extract resolves ref in archive and returns formatted content.
	Extract(
		ctx context.Context, archive string, ref domain.EntryRef, format domain.ContentFormat,
	) (*domain.ExtractedContent, error)

	// ReadRaw returns the entry bytes hex-encoded, bypassing decoding.
	ReadRaw(ctx context.Context, archive, path string) (*domain.ExtractedContent, error)

	// ExtractMany extracts several paths, skipping failures.
	ExtractMany(
		ctx context.Context, archive string, paths []string, format domain.ContentFormat,
	) []domain.ExtractedContent

	// ExtractHits extracts the entries behind search hits, skipping failures.
	ExtractHits(ctx context.Context, hits []domain.SearchHit, format domain.ContentFormat) []domain.ExtractedContent

	// Outline summarises ref and lists its headings and links, reading the
	// whole entry regardless of the maximum content length.
	Outline(ctx context.Context, archive string, ref domain.EntryRef, maxLength int) (*domain.EntryOutline, error)

	// Summarize accumulates whole sentences up to maxLength characters.
	Summarize(content string, maxLength int) string

	// TableOfContents lists the headings found in markup.
	TableOfContents(content string) []domain.Heading

	// Links lists the anchors found in markup.
	Links(content string) []domain.Link
}
