package domain

import (
	"slices"
	"strings"
)

// ArchiveExtension is the file extension recognised as an archive.
const ArchiveExtension = ".zim"

// Well-known archive metadata keys.
const (
	MetadataTitle       = "Title"
	MetadataDescription = "Description"
	MetadataLanguage    = "Language"
	MetadataCreator     = "Creator"
	MetadataDate        = "Date"
)

// articleMIMETypes are the MIME base types of articles: readable pages, as
// opposed to images, styles, scripts and other media. Sorted.
var articleMIMETypes = []string{
	"application/xhtml+xml",
	"text/html",
	"text/markdown",
	"text/plain",
	"text/x-markdown",
}

// ArticleMIMETypes returns the MIME base types counted as articles.
func ArticleMIMETypes() []string {
	return slices.Clone(articleMIMETypes)
}

// IsArticleMIMEType reports whether a non-redirect entry of mimeType is an
// article. Parameters and case are ignored.
func IsArticleMIMEType(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	_, found := slices.BinarySearch(articleMIMETypes, strings.ToLower(strings.TrimSpace(base)))
	return found
}

// ArchiveDescriptor describes one archive file. It is immutable once built
// and owned by the archive registry; Filename is its unique key.
type ArchiveDescriptor struct {
	// Filename is the base name of the archive, unique within a registry.
	Filename string

	// AbsolutePath is the canonical path of the archive file.
	AbsolutePath string

	// SizeBytes is the file size on disk.
	SizeBytes int64

	// SizeFormatted is a human-readable rendering of SizeBytes.
	SizeFormatted string

	ArticleCount int
	MediaCount   int

	// Title falls back to Filename when the archive carries no Title metadata.
	Title       string
	Description string
	Language    string
	Creator     string
	Date        string

	HasFulltextIndex bool
	HasTitleIndex    bool

	UUID string

	// Metadata holds every metadata key-value pair the archive exposes.
	Metadata map[string]string
}

// DirectoryStats summarises the archive directory.
type DirectoryStats struct {
	Directory          string
	Exists             bool
	FileCount          int
	TotalSizeBytes     int64
	TotalSizeFormatted string
}

// RegistryStats reports the state of the archive registry caches.
type RegistryStats struct {
	HandleCacheSize     int
	HandleCacheCapacity int
	DescriptorCacheSize int
	DiscoveryCached     bool
}
