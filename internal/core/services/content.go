package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driving"
	"github.com/mobilemutex/zim-mcp/internal/logger"
	"github.com/mobilemutex/zim-mcp/internal/metrics"
)

// Ensure ContentExtractor implements the interface.
var _ driving.ContentService = (*ContentExtractor)(nil)

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

// ContentExtractor turns archive entries into decoded, formatted and
// length-bounded content with derived metadata.
type ContentExtractor struct {
	registry         *ArchiveRegistry
	normaliser       driven.Normaliser
	normalisers      driven.NormaliserRegistry
	maxContentLength int
}

// NewContentExtractor creates an extractor. Content longer than
// maxContentLength characters is truncated.
func NewContentExtractor(
	registry *ArchiveRegistry, normaliser driven.Normaliser, maxContentLength int,
) (*ContentExtractor, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: archive registry is required", domain.ErrInvalidInput)
	}
	if normaliser == nil {
		return nil, fmt.Errorf("%w: normaliser is required", domain.ErrInvalidInput)
	}
	if maxContentLength <= 0 {
		return nil, fmt.Errorf("%w: max content length must be positive, got %d",
			domain.ErrInvalidInput, maxContentLength)
	}
	return &ContentExtractor{
		registry:         registry,
		normaliser:       normaliser,
		maxContentLength: maxContentLength,
	}, nil
}

// WithNormalisers formats entries whose MIME type has a registered
// normaliser with that normaliser instead of the default one.
func (c *ContentExtractor) WithNormalisers(normalisers driven.NormaliserRegistry) *ContentExtractor {
	c.normalisers = normalisers
	return c
}

func (c *ContentExtractor) normaliserFor(mimeType string) driven.Normaliser {
	if c.normalisers != nil {
		if n, ok := c.normalisers.For(mimeType); ok {
			return n
		}
	}
	return c.normaliser
}

// rawEntry is what Extract copies out of an archive while holding it.
type rawEntry struct {
	path           string
	title          string
	mimeType       string
	isRedirect     bool
	redirectTarget string
	content        []byte
}

// read resolves ref and copies the entry out of the archive.
func (c *ContentExtractor) read(ctx context.Context, id string, ref domain.EntryRef) (*rawEntry, error) {
	if ref.Path == "" && ref.Title == "" {
		return nil, fmt.Errorf("%w: entry path or title is required", domain.ErrInvalidInput)
	}

	var out *rawEntry
	err := c.registry.WithArchive(ctx, id, func(a driven.Archive) error {
		var entry driven.Entry
		var err error
		if ref.Path != "" {
			entry, err = a.EntryByPath(ctx, ref.Path)
		} else {
			entry, err = a.EntryByTitle(ctx, ref.Title)
		}
		if err != nil {
			return entryError(id, "entry "+ref.String(), err)
		}

		out = &rawEntry{
			path:       entry.Path(),
			title:      entry.Title(),
			mimeType:   entry.MIMEType(),
			isRedirect: entry.IsRedirect(),
		}
		if out.isRedirect {
			out.redirectTarget = entry.RedirectTarget()
			return nil
		}
		out.content, err = entry.Content(ctx)
		if err != nil {
			return entryError(id, "content of "+ref.String(), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Extract resolves ref in archive and returns its content in format.
// Unknown formats fall back to text. Redirects yield a sentinel payload
// without reading content.
func (c *ContentExtractor) Extract(
	ctx context.Context, archive string, ref domain.EntryRef, format domain.ContentFormat,
) (*domain.ExtractedContent, error) {
	id, err := c.registry.ArchiveID(archive)
	if err != nil {
		return nil, err
	}
	if !format.IsValid() {
		format = domain.FormatText
	}

	entry, err := c.read(ctx, id, ref)
	if err != nil {
		return nil, err
	}

	if entry.isRedirect {
		return &domain.ExtractedContent{
			ArchiveID:      id,
			EntryPath:      entry.path,
			Title:          entry.title,
			ContentType:    domain.ContentTypeRedirect,
			IsRedirect:     true,
			RedirectTarget: entry.redirectTarget,
			Metadata:       map[string]any{},
		}, nil
	}

	n := c.normaliserFor(entry.mimeType)
	decoded := Decode(entry.content)
	text := n.Text(decoded)
	formatted := decoded
	if format == domain.FormatText {
		formatted = text
	}
	content, truncated := Truncate(formatted, c.maxContentLength)

	metrics.EntryExtracted(format.String())
	return &domain.ExtractedContent{
		ArchiveID:     id,
		EntryPath:     entry.path,
		Title:         entry.title,
		ContentType:   format.String(),
		Content:       content,
		RawByteLength: len(entry.content),
		Preview:       preview(text),
		Truncated:     truncated,
		Metadata:      metadata(n, decoded),
	}, nil
}

// ReadRaw returns the entry bytes hex-encoded without decoding them.
// The hex string is truncated like any other content.
func (c *ContentExtractor) ReadRaw(ctx context.Context, archive, path string) (*domain.ExtractedContent, error) {
	id, err := c.registry.ArchiveID(archive)
	if err != nil {
		return nil, err
	}
	entry, err := c.read(ctx, id, domain.ByPath(path))
	if err != nil {
		return nil, err
	}

	content, truncated := Truncate(hex.EncodeToString(entry.content), c.maxContentLength)
	metrics.EntryExtracted(domain.FormatRaw.String())
	return &domain.ExtractedContent{
		ArchiveID:      id,
		EntryPath:      entry.path,
		Title:          entry.title,
		ContentType:    domain.FormatRaw.String(),
		Content:        content,
		RawByteLength:  len(entry.content),
		Truncated:      truncated,
		IsRedirect:     entry.isRedirect,
		RedirectTarget: entry.redirectTarget,
		Metadata:       map[string]any{},
	}, nil
}

// ExtractMany extracts each path, logging and skipping failures.
func (c *ContentExtractor) ExtractMany(
	ctx context.Context, archive string, paths []string, format domain.ContentFormat,
) []domain.ExtractedContent {
	results := make([]domain.ExtractedContent, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		content, err := c.Extract(ctx, archive, domain.ByPath(path), format)
		if err != nil {
			logger.Warn("Extracting %s from %s: %v", path, archive, err)
			continue
		}
		results = append(results, *content)
	}
	return results
}

// ExtractHits extracts the entries behind search hits, recording each
// hit's score as search_score metadata. Failures are skipped.
func (c *ContentExtractor) ExtractHits(
	ctx context.Context, hits []domain.SearchHit, format domain.ContentFormat,
) []domain.ExtractedContent {
	results := make([]domain.ExtractedContent, 0, len(hits))
	for _, hit := range hits {
		if ctx.Err() != nil {
			break
		}
		content, err := c.Extract(ctx, hit.ArchiveID, domain.ByPath(hit.EntryPath), format)
		if err != nil {
			logger.Warn("Extracting search result %s from %s: %v", hit.EntryPath, hit.ArchiveID, err)
			continue
		}
		content.Metadata[domain.MetaSearchScore] = hit.Score
		results = append(results, *content)
	}
	return results
}

// Outline reads ref in archive and summarises it with the normaliser for
// its MIME type. Unlike Extract it never truncates, so the summary,
// headings and links cover the whole entry.
func (c *ContentExtractor) Outline(
	ctx context.Context, archive string, ref domain.EntryRef, maxLength int,
) (*domain.EntryOutline, error) {
	id, err := c.registry.ArchiveID(archive)
	if err != nil {
		return nil, err
	}
	if maxLength < 0 {
		return nil, fmt.Errorf("%w: summary length must not be negative, got %d", domain.ErrInvalidInput, maxLength)
	}

	entry, err := c.read(ctx, id, ref)
	if err != nil {
		return nil, err
	}
	outline := &domain.EntryOutline{
		ArchiveID:      id,
		EntryPath:      entry.path,
		Title:          entry.title,
		IsRedirect:     entry.isRedirect,
		RedirectTarget: entry.redirectTarget,
		Metadata:       map[string]any{},
	}
	if entry.isRedirect {
		return outline, nil
	}

	n := c.normaliserFor(entry.mimeType)
	decoded := Decode(entry.content)
	outline.Summary = summarize(n.Text(decoded), maxLength)
	outline.Headings = n.Headings(decoded)
	outline.Links = n.Links(decoded)
	outline.Metadata = metadata(n, decoded)
	return outline, nil
}

// Summarize splits content into sentences and accumulates whole
// sentences while the summary stays within maxLength characters.
// Markup is stripped first.
func (c *ContentExtractor) Summarize(content string, maxLength int) string {
	if looksLikeMarkup(content) {
		content = c.normaliser.Text(content)
	}
	return summarize(content, maxLength)
}

func summarize(content string, maxLength int) string {
	var summary strings.Builder
	for _, sentence := range sentenceBreak.Split(content, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if utf8.RuneCountInString(summary.String())+utf8.RuneCountInString(sentence) > maxLength {
			break
		}
		summary.WriteString(sentence)
		summary.WriteString(". ")
	}
	return strings.TrimSpace(summary.String())
}

// TableOfContents lists the headings found in markup.
func (c *ContentExtractor) TableOfContents(content string) []domain.Heading {
	return c.normaliser.Headings(content)
}

// Links lists the anchors found in markup.
func (c *ContentExtractor) Links(content string) []domain.Link {
	return c.normaliser.Links(content)
}

// preview returns at most PreviewLength characters of text.
func preview(content string) string {
	if utf8.RuneCountInString(content) <= domain.PreviewLength {
		return content
	}
	runes := []rune(content)
	keep := domain.PreviewLength - utf8.RuneCountInString(domain.PreviewEllipsis)
	return string(runes[:keep]) + domain.PreviewEllipsis
}

// metadata scans decoded content for a title, a description and image
// and link counts. Keys are omitted when nothing was found.
func metadata(n driven.Normaliser, content string) map[string]any {
	meta := map[string]any{}
	if title, ok := n.Title(content); ok {
		meta[domain.MetaHTMLTitle] = title
	}
	if desc, ok := n.Description(content); ok {
		meta[domain.MetaDescription] = desc
	}
	if count := n.CountImages(content); count > 0 {
		meta[domain.MetaImageCount] = count
	}
	if count := n.CountLinks(content); count > 0 {
		meta[domain.MetaLinkCount] = count
	}
	return meta
}

func looksLikeMarkup(content string) bool {
	return strings.Contains(content, "<") && strings.Contains(content, ">")
}

// Decode converts entry bytes to a string. Valid UTF-8 is used as is;
// anything else is read as ISO-8859-1, and if that fails invalid
// sequences are replaced with U+FFFD. Decode never fails.
func Decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
		return string(decoded)
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}

// Truncate cuts content to maxLength characters and appends the
// truncation marker. It reports whether content was cut.
func Truncate(content string, maxLength int) (string, bool) {
	if maxLength <= 0 || utf8.RuneCountInString(content) <= maxLength {
		return content, false
	}
	runes := []rune(content)
	return string(runes[:maxLength]) + domain.TruncationMarker, true
}
