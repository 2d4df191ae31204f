package domain

import "strings"

// ContentFormat selects how entry bytes are rendered.
type ContentFormat string

// Available content formats.
const (
	// FormatText strips markup and collapses whitespace.
	FormatText ContentFormat = "text"

	// FormatHTML returns the decoded markup unchanged.
	FormatHTML ContentFormat = "html"

	// FormatRaw returns the decoded string unchanged. Raw byte output
	// (hex) is a separate operation that bypasses decoding.
	FormatRaw ContentFormat = "raw"
)

// ContentTypeRedirect is the content type of a redirect sentinel payload.
const ContentTypeRedirect = "redirect"

// Content limits.
const (
	// PreviewLength is the maximum preview length in characters.
	PreviewLength = 200

	// TruncationMarker is appended to content cut at the maximum length.
	TruncationMarker = "... [truncated]"

	// PreviewEllipsis is the suffix of a shortened preview.
	PreviewEllipsis = "..."
)

// Metadata keys derived from entry content.
const (
	MetaHTMLTitle   = "html_title"
	MetaDescription = "description"
	MetaImageCount  = "image_count"
	MetaLinkCount   = "link_count"
	MetaSearchScore = "search_score"
)

// ParseContentFormat parses a format name. Matching is case-insensitive.
func ParseContentFormat(s string) (ContentFormat, error) {
	switch f := ContentFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatHTML, FormatRaw:
		return f, nil
	default:
		return "", ErrInvalidFormat
	}
}

// IsValid returns true if the format is recognised.
func (f ContentFormat) IsValid() bool {
	switch f {
	case FormatText, FormatHTML, FormatRaw:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f ContentFormat) String() string {
	return string(f)
}

// EntryRef addresses an entry either by path or by title.
// Path wins when both are set.
type EntryRef struct {
	Path  string
	Title string
}

// ByPath returns a reference to the entry at path.
func ByPath(path string) EntryRef {
	return EntryRef{Path: path}
}

// ByTitle returns a reference to the entry with the given title.
func ByTitle(title string) EntryRef {
	return EntryRef{Title: title}
}

// String returns a human-readable form of the reference for logs.
func (r EntryRef) String() string {
	if r.Path != "" {
		return r.Path
	}
	return "title:" + r.Title
}

// ExtractedContent is the decoded, formatted and bounded view of one entry.
// It is created per request and never cached.
type ExtractedContent struct {
	// ArchiveID is the archive the entry was read from.
	ArchiveID string

	EntryPath string
	Title     string

	// ContentType is the applied format, or ContentTypeRedirect.
	ContentType string

	// Content is the formatted, possibly truncated content.
	Content string

	// RawByteLength is the size of the entry bytes before decoding.
	RawByteLength int

	// Preview is markup-free and at most PreviewLength characters.
	Preview string

	// Truncated reports whether Content was cut at the maximum length.
	Truncated bool

	IsRedirect     bool
	RedirectTarget string

	// Metadata holds derived fields; keys are absent when not derivable.
	Metadata map[string]any
}

// EntryOutline is a summary, table of contents and link list of one entry.
// It is derived from the complete decoded content, so nothing in it is cut
// at the maximum content length.
type EntryOutline struct {
	ArchiveID string
	EntryPath string
	Title     string

	IsRedirect     bool
	RedirectTarget string

	Summary  string
	Headings []Heading
	Links    []Link

	// Metadata holds the same derived fields as ExtractedContent.Metadata.
	Metadata map[string]any
}

// Heading is one table-of-contents item.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Link is one anchor found in markup.
type Link struct {
	Href string
	Text string
}
