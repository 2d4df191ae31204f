// Package html provides a Normaliser implementation for HTML entries.
// It extracts readable text from markup, stripping tags, scripts and
// styles and decoding entities, and scans markup for titles, headings,
// links and media counts.
package html

import (
	"html"
	"regexp"
	"strings"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML entries.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Pre-compiled regular expressions for HTML scanning performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	descriptionMeta   = regexp.MustCompile(`(?i)<meta[^>]*name=["']description["'][^>]*content=["']([^"']*)["']`)
	imgTag            = regexp.MustCompile(`(?i)<img[^>]*>`)
	anchorWithHref    = regexp.MustCompile(`(?i)<a[^>]*href=[^>]*>`)
	headingTag        = regexp.MustCompile(`(?is)<h([1-6])([^>]*)>(.*?)</h[1-6]>`)
	idAttr            = regexp.MustCompile(`(?i)\bid=["']([^"']*)["']`)
	linkTag           = regexp.MustCompile(`(?is)<a[^>]*href=["']([^"']*)["'][^>]*>(.*?)</a>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|td|th|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|td|th|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	whitespace        = regexp.MustCompile(`\s+`)
)

// Text strips markup and collapses every whitespace run into one space.
func (n *Normaliser) Text(content string) string {
	return stripHTML(content)
}

// Title returns the trimmed, entity-decoded content of the title tag.
func (n *Normaliser) Title(content string) (string, bool) {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) < 2 {
		return "", false
	}
	return strings.TrimSpace(html.UnescapeString(matches[1])), true
}

// Description returns the content attribute of the description meta tag.
func (n *Normaliser) Description(content string) (string, bool) {
	matches := descriptionMeta.FindStringSubmatch(content)
	if len(matches) < 2 {
		return "", false
	}
	return strings.TrimSpace(html.UnescapeString(matches[1])), true
}

// CountImages counts img tags.
func (n *Normaliser) CountImages(content string) int {
	return len(imgTag.FindAllStringIndex(content, -1))
}

// CountLinks counts anchors carrying an href attribute.
func (n *Normaliser) CountLinks(content string) int {
	return len(anchorWithHref.FindAllStringIndex(content, -1))
}

// Headings returns h1-h6 headings in document order. Headings whose text
// is empty after stripping are skipped.
func (n *Normaliser) Headings(content string) []domain.Heading {
	var headings []domain.Heading
	for _, m := range headingTag.FindAllStringSubmatch(content, -1) {
		text := stripHTML(m[3])
		if text == "" {
			continue
		}
		h := domain.Heading{Level: int(m[1][0] - '0'), Text: text}
		if id := idAttr.FindStringSubmatch(m[2]); len(id) > 1 {
			h.ID = id[1]
		}
		headings = append(headings, h)
	}
	return headings
}

// Links returns anchors with a non-empty href and non-empty text.
func (n *Normaliser) Links(content string) []domain.Link {
	var links []domain.Link
	for _, m := range linkTag.FindAllStringSubmatch(content, -1) {
		text := stripHTML(m[2])
		if m[1] == "" || text == "" {
			continue
		}
		links = append(links, domain.Link{Href: m[1], Text: text})
	}
	return links
}

// stripHTML removes HTML tags and returns readable text on one line.
func stripHTML(content string) string {
	// Remove script, style, noscript, head, and svg tags entirely
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	// Block boundaries become separators so adjacent words stay apart
	content = openBlockElements.ReplaceAllString(content, " ")
	content = blockElements.ReplaceAllString(content, " ")
	content = brTags.ReplaceAllString(content, " ")
	content = hrTags.ReplaceAllString(content, " ")

	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	return strings.TrimSpace(whitespace.ReplaceAllString(content, " "))
}
