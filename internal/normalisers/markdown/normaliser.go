// Package markdown normalises Markdown entries.
package markdown

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

var (
	codeBlock    = regexp.MustCompile("(?s)```.*?```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	image        = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)[^)]*\)`)
	link         = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)[^)]*\)`)
	heading      = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t#]*$`)
	blockquote   = regexp.MustCompile(`(?m)^>[ \t]*`)
	rule         = regexp.MustCompile(`(?m)^[-*_]{3,}[ \t]*$`)
	listMarker   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedList = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*|~~)`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Text strips Markdown syntax and collapses whitespace. Code blocks and
// images are dropped; links keep their text.
func (n *Normaliser) Text(content string) string {
	content = codeBlock.ReplaceAllString(content, " ")
	content = image.ReplaceAllString(content, " ")
	content = inline(content)
	content = heading.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = rule.ReplaceAllString(content, " ")
	content = listMarker.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(content, " "))
}

// inline removes link, code and emphasis syntax from one line of text.
func inline(s string) string {
	s = link.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, "$1")
	return emphasis.ReplaceAllString(s, "")
}

// Title returns the first level-one heading.
func (n *Normaliser) Title(content string) (string, bool) {
	for _, h := range n.Headings(content) {
		if h.Level == 1 && h.Text != "" {
			return h.Text, true
		}
	}
	return "", false
}

// Description is never derivable from Markdown.
func (n *Normaliser) Description(string) (string, bool) {
	return "", false
}

// CountImages counts image references outside code blocks.
func (n *Normaliser) CountImages(content string) int {
	return len(image.FindAllStringIndex(codeBlock.ReplaceAllString(content, ""), -1))
}

// CountLinks counts links outside code blocks, excluding images.
func (n *Normaliser) CountLinks(content string) int {
	return len(n.Links(content))
}

// Headings returns ATX headings in document order. IDs are derived from
// the heading text the way Markdown renderers usually slug them.
func (n *Normaliser) Headings(content string) []domain.Heading {
	content = codeBlock.ReplaceAllString(content, "")
	var headings []domain.Heading
	for _, m := range heading.FindAllStringSubmatch(content, -1) {
		text := strings.TrimSpace(inline(m[2]))
		if text == "" {
			continue
		}
		headings = append(headings, domain.Heading{
			Level: len(m[1]),
			ID:    slug(text),
			Text:  text,
		})
	}
	return headings
}

// Links returns inline links with a non-empty target and text.
func (n *Normaliser) Links(content string) []domain.Link {
	content = codeBlock.ReplaceAllString(content, "")
	content = image.ReplaceAllString(content, "")
	var links []domain.Link
	for _, m := range link.FindAllStringSubmatch(content, -1) {
		text := strings.TrimSpace(inline(m[1]))
		href := strings.TrimSpace(m[2])
		if text == "" || href == "" {
			continue
		}
		links = append(links, domain.Link{Href: href, Text: text})
	}
	return links
}

// slug lowercases text, keeps letters, digits, hyphens and underscores,
// and turns spaces into hyphens.
func slug(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}
