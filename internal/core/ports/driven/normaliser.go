package driven

import (
	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

// Normaliser turns entry markup into plain text and scans it for
// lightweight structure. Implementations are best-effort pattern scanners,
// not full markup parsers: malformed markup is skipped, never an error.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Text strips markup and collapses whitespace into single spaces.
	Text(content string) string

	// Title returns the content of the title tag, false when absent.
	Title(content string) (string, bool)

	// Description returns the description meta tag, false when absent.
	Description(content string) (string, bool)

	// CountImages counts image tags.
	CountImages(content string) int

	// CountLinks counts anchors carrying an href.
	CountLinks(content string) int

	// Headings returns h1-h6 headings in document order.
	Headings(content string) []domain.Heading

	// Links returns anchors with a non-empty href and text.
	Links(content string) []domain.Link
}
