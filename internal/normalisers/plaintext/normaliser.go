// Package plaintext normalises plain text and source code entries.
package plaintext

import (
	"regexp"
	"strings"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/x-go",
		"text/x-python",
		"text/x-rust",
		"text/x-java",
		"text/x-c",
		"text/x-c++",
		"text/x-ruby",
		"text/x-shellscript",
		"text/x-sql",
		"text/csv",
		"text/tab-separated-values",
		"text/yaml",
		"text/toml",
		"text/javascript",
		"text/css",
		"application/json",
	}
}

var (
	url        = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Text collapses whitespace.
func (n *Normaliser) Text(content string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(content, " "))
}

// Title is never derivable from plain text.
func (n *Normaliser) Title(string) (string, bool) {
	return "", false
}

// Description is never derivable from plain text.
func (n *Normaliser) Description(string) (string, bool) {
	return "", false
}

// CountImages always returns zero.
func (n *Normaliser) CountImages(string) int {
	return 0
}

// CountLinks counts bare http and https URLs.
func (n *Normaliser) CountLinks(content string) int {
	return len(url.FindAllStringIndex(content, -1))
}

// Headings returns nothing: plain text has no heading syntax.
func (n *Normaliser) Headings(string) []domain.Heading {
	return nil
}

// Links returns bare URLs, each labelled with itself.
func (n *Normaliser) Links(content string) []domain.Link {
	var links []domain.Link
	for _, u := range url.FindAllString(content, -1) {
		u = strings.TrimRight(u, ".,;:!?")
		links = append(links, domain.Link{Href: u, Text: u})
	}
	return links
}
