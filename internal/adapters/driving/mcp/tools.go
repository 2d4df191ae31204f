package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/services"
	"github.com/mobilemutex/zim-mcp/internal/logger"
)

// Tool input bounds and defaults.
const (
	defaultSearchResults  = 20
	defaultExtractResults = 10
	maxExtractResults     = 50
	defaultBrowseLimit    = 50
	maxBrowseLimit        = 200
	defaultRandomCount    = 5
	maxRandomCount        = 50
	defaultSummaryLength  = 500
)

// ListFilesInput is the input schema for the list_zim_files tool.
type ListFilesInput struct{}

// ListFilesOutput is the output schema for the list_zim_files tool.
type ListFilesOutput struct {
	Status string     `json:"status"`
	Error  string     `json:"error,omitempty"`
	Count  int        `json:"count"`
	Files  []FileInfo `json:"files"`
}

// FileInfo summarises one archive.
type FileInfo struct {
	Filename         string `json:"filename"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Size             string `json:"size"`
	ArticleCount     int    `json:"article_count"`
	MediaCount       int    `json:"media_count"`
	Language         string `json:"language"`
	Creator          string `json:"creator"`
	Date             string `json:"date"`
	HasFulltextIndex bool   `json:"has_fulltext_index"`
	HasTitleIndex    bool   `json:"has_title_index"`
}

// MetadataInput is the input schema for the get_zim_metadata tool.
type MetadataInput struct {
	ZimFile string `json:"zim_file" jsonschema:"name of the archive file in the archive directory"`
}

// MetadataOutput is the output schema for the get_zim_metadata tool.
type MetadataOutput struct {
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Metadata  ArchiveMetadata `json:"metadata"`
	CacheInfo CacheInfo       `json:"cache_info"`
}

// ArchiveMetadata is the full descriptor of one archive.
type ArchiveMetadata struct {
	Filename         string            `json:"filename"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Size             int64             `json:"size"`
	SizeFormatted    string            `json:"size_formatted"`
	ArticleCount     int               `json:"article_count"`
	MediaCount       int               `json:"media_count"`
	Language         string            `json:"language"`
	Creator          string            `json:"creator"`
	Date             string            `json:"date"`
	HasFulltextIndex bool              `json:"has_fulltext_index"`
	HasTitleIndex    bool              `json:"has_title_index"`
	UUID             string            `json:"uuid"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// CacheInfo reports whether the descriptor was already cached.
type CacheInfo struct {
	IsCached bool `json:"is_cached"`
}

// ReadEntryInput is the input schema for the read_zim_entry tool.
type ReadEntryInput struct {
	ZimFile      string `json:"zim_file" jsonschema:"name of the archive file"`
	EntryPath    string `json:"entry_path" jsonschema:"path of the entry inside the archive"`
	OutputFormat string `json:"output_format,omitempty" jsonschema:"text, html or raw (hex bytes); defaults to the configured format"`
}

// ReadEntryOutput is the output schema for the read_zim_entry tool.
type ReadEntryOutput struct {
	Status string       `json:"status"`
	Error  string       `json:"error,omitempty"`
	Entry  EntryContent `json:"entry"`
}

// EntryContent is one entry rendered in the requested format.
type EntryContent struct {
	Path           string `json:"path"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	ContentLength  int    `json:"content_length"`
	Format         string `json:"format"`
	Truncated      bool   `json:"truncated"`
	IsRedirect     bool   `json:"is_redirect"`
	RedirectTarget string `json:"redirect_target,omitempty"`
}

// SearchInput is the input schema for the search_zim_files tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the full-text search query"`
	ZimFiles    []string `json:"zim_files,omitempty" jsonschema:"archives to search; all indexed archives when empty"`
	MaxResults  int      `json:"max_results,omitempty" jsonschema:"page size (default 20)"`
	StartOffset int      `json:"start_offset,omitempty" jsonschema:"index of the first result in the merged list"`
}

// SearchOutput is the output schema for the search_zim_files tool.
type SearchOutput struct {
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	Query      string             `json:"query"`
	Count      int                `json:"count"`
	Results    []SearchResultItem `json:"results"`
	Pagination Pagination         `json:"pagination"`
}

// SearchResultItem is one search hit.
type SearchResultItem struct {
	ZimFile    string  `json:"zim_file"`
	Path       string  `json:"path"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
	IsRedirect bool    `json:"is_redirect"`
}

// Pagination describes the returned page.
type Pagination struct {
	StartOffset int  `json:"start_offset"`
	MaxResults  int  `json:"max_results"`
	HasMore     bool `json:"has_more"`
}

// SearchExtractInput is the input schema for the search_and_extract_content tool.
type SearchExtractInput struct {
	Query            string   `json:"query" jsonschema:"the full-text search query"`
	ZimFiles         []string `json:"zim_files,omitempty" jsonschema:"archives to search; all indexed archives when empty"`
	MaxResults       int      `json:"max_results,omitempty" jsonschema:"number of entries to extract (default 10, max 50)"`
	ContentFormat    string   `json:"content_format,omitempty" jsonschema:"text or html (default text)"`
	MaxContentLength int      `json:"max_content_length,omitempty" jsonschema:"per-entry content limit in characters"`
}

// SearchExtractOutput is the output schema for the search_and_extract_content tool.
type SearchExtractOutput struct {
	Status  string           `json:"status"`
	Error   string           `json:"error,omitempty"`
	Query   string           `json:"query"`
	Format  string           `json:"format"`
	Count   int              `json:"count"`
	Results []ExtractedEntry `json:"results"`
}

// ExtractedEntry is the extracted content of one search hit.
type ExtractedEntry struct {
	ZimFile        string         `json:"zim_file"`
	Path           string         `json:"path"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	ContentType    string         `json:"content_type"`
	ContentLength  int            `json:"content_length"`
	Preview        string         `json:"preview"`
	Truncated      bool           `json:"truncated"`
	IsRedirect     bool           `json:"is_redirect"`
	RedirectTarget string         `json:"redirect_target,omitempty"`
	Metadata       map[string]any `json:"metadata"`
}

// BrowseInput is the input schema for the browse_zim_entries tool.
type BrowseInput struct {
	ZimFile      string `json:"zim_file" jsonschema:"name of the archive file"`
	PathPattern  string `json:"path_pattern,omitempty" jsonschema:"case-insensitive substring of the entry path"`
	TitlePattern string `json:"title_pattern,omitempty" jsonschema:"case-insensitive substring of the entry title"`
	Limit        int    `json:"limit,omitempty" jsonschema:"maximum entries to return (default 50, max 200)"`
}

// BrowseOutput is the output schema for the browse_zim_entries tool.
type BrowseOutput struct {
	Status       string         `json:"status"`
	Error        string         `json:"error,omitempty"`
	ZimFile      string         `json:"zim_file"`
	PathPattern  string         `json:"path_pattern,omitempty"`
	TitlePattern string         `json:"title_pattern,omitempty"`
	Count        int            `json:"count"`
	Entries      []BrowsedEntry `json:"entries"`
}

// BrowsedEntry is one sampled entry.
type BrowsedEntry struct {
	Path       string `json:"path"`
	Title      string `json:"title"`
	IsRedirect bool   `json:"is_redirect"`
}

// RandomInput is the input schema for the get_random_entries tool.
type RandomInput struct {
	ZimFiles []string `json:"zim_files,omitempty" jsonschema:"archives to sample; all archives when empty"`
	Count    int      `json:"count,omitempty" jsonschema:"number of entries (default 5, max 50)"`
}

// RandomOutput is the output schema for the get_random_entries tool.
type RandomOutput struct {
	Status  string        `json:"status"`
	Error   string        `json:"error,omitempty"`
	Count   int           `json:"count"`
	Entries []RandomEntry `json:"entries"`
}

// RandomEntry is one randomly drawn entry.
type RandomEntry struct {
	ZimFile    string `json:"zim_file"`
	Path       string `json:"path"`
	Title      string `json:"title"`
	IsRedirect bool   `json:"is_redirect"`
}

// SummaryInput is the input schema for the get_entry_summary tool.
type SummaryInput struct {
	ZimFile   string `json:"zim_file" jsonschema:"name of the archive file"`
	EntryPath string `json:"entry_path" jsonschema:"path of the entry inside the archive"`
	MaxLength int    `json:"max_length,omitempty" jsonschema:"summary length limit in characters (default 500)"`
}

// SummaryOutput is the output schema for the get_entry_summary tool.
type SummaryOutput struct {
	Status          string         `json:"status"`
	Error           string         `json:"error,omitempty"`
	Path            string         `json:"path"`
	Title           string         `json:"title"`
	Summary         string         `json:"summary"`
	TableOfContents []HeadingItem  `json:"table_of_contents"`
	Links           []LinkItem     `json:"links"`
	IsRedirect      bool           `json:"is_redirect"`
	RedirectTarget  string         `json:"redirect_target,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// HeadingItem is one table-of-contents entry.
type HeadingItem struct {
	Level int    `json:"level"`
	ID    string `json:"id,omitempty"`
	Text  string `json:"text"`
}

// LinkItem is one anchor of an entry.
type LinkItem struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_zim_files",
		Description: "List all archive files in the configured directory with their metadata",
	}, s.handleListFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_zim_metadata",
		Description: "Get detailed metadata about one archive file",
	}, s.handleMetadata)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read_zim_entry",
		Description: "Read one entry of an archive as text, html or raw hex bytes",
	}, s.handleReadEntry)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_zim_files",
		Description: "Full-text search across one, several or all archives with pagination",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_and_extract_content",
		Description: "Search and return the extracted content of the matching entries",
	}, s.handleSearchExtract)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "browse_zim_entries",
		Description: "Sample entries whose path or title contain the given patterns. " +
			"Browsing draws random entries, so results are best-effort and not exhaustive",
	}, s.handleBrowse)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_random_entries",
		Description: "Get random entries from the archives for exploration",
	}, s.handleRandom)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_entry_summary",
		Description: "Summarise one entry and list its headings and links",
	}, s.handleSummary)
}

// handleListFiles handles the list_zim_files tool invocation.
func (s *Server) handleListFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListFilesInput,
) (*mcp.CallToolResult, ListFilesOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer logger.Timed("list_zim_files")()

	logger.Info("Listing archive files")
	archives, err := s.ports.Archives.Discover(ctx, false)
	if err != nil {
		logger.Error("Error listing archive files: %v", err)
		return nil, ListFilesOutput{Status: statusError, Error: err.Error(), Files: []FileInfo{}}, nil
	}

	files := make([]FileInfo, len(archives))
	for i := range archives {
		files[i] = fileInfo(&archives[i])
	}
	return nil, ListFilesOutput{Status: statusSuccess, Count: len(files), Files: files}, nil
}

// handleMetadata handles the get_zim_metadata tool invocation.
func (s *Server) handleMetadata(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MetadataInput,
) (*mcp.CallToolResult, MetadataOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer logger.Timed("get_zim_metadata")()

	logger.Info("Getting metadata for archive %s", input.ZimFile)
	cached := s.ports.Archives.IsDescribed(input.ZimFile)
	desc, err := s.ports.Archives.Describe(ctx, input.ZimFile)
	if err != nil {
		logger.Error("Error getting metadata for %s: %v", input.ZimFile, err)
		return nil, MetadataOutput{Status: statusError, Error: err.Error()}, nil
	}
	return nil, MetadataOutput{
		Status:    statusSuccess,
		Metadata:  archiveMetadata(desc),
		CacheInfo: CacheInfo{IsCached: cached},
	}, nil
}

// handleReadEntry handles the read_zim_entry tool invocation.
func (s *Server) handleReadEntry(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadEntryInput,
) (*mcp.CallToolResult, ReadEntryOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer logger.Timed("read_zim_entry")()

	logger.Info("Reading entry %s from %s", input.EntryPath, input.ZimFile)
	entry, err := s.readEntry(ctx, input)
	if err != nil {
		logger.Error("Error reading entry %s from %s: %v", input.EntryPath, input.ZimFile, err)
		return nil, ReadEntryOutput{Status: statusError, Error: err.Error()}, nil
	}
	return nil, ReadEntryOutput{Status: statusSuccess, Entry: entry}, nil
}

func (s *Server) readEntry(ctx context.Context, input ReadEntryInput) (EntryContent, error) {
	format := s.ports.Settings.DefaultFormat
	if input.OutputFormat != "" {
		parsed, err := domain.ParseContentFormat(input.OutputFormat)
		if err != nil {
			return EntryContent{}, fmt.Errorf("%w: %q (use text, html or raw)", err, input.OutputFormat)
		}
		format = parsed
	}

	var content *domain.ExtractedContent
	var err error
	if format == domain.FormatRaw {
		content, err = s.ports.Content.ReadRaw(ctx, input.ZimFile, input.EntryPath)
	} else {
		content, err = s.ports.Content.Extract(ctx, input.ZimFile, domain.ByPath(input.EntryPath), format)
	}
	if err != nil {
		return EntryContent{}, err
	}

	return EntryContent{
		Path:           content.EntryPath,
		Title:          content.Title,
		Content:        content.Content,
		ContentLength:  content.RawByteLength,
		Format:         content.ContentType,
		Truncated:      content.Truncated,
		IsRedirect:     content.IsRedirect,
		RedirectTarget: content.RedirectTarget,
	}, nil
}

// handleSearch handles the search_zim_files tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer logger.Timed("search_zim_files")()

	limit := input.MaxResults
	if limit == 0 {
		limit = min(defaultSearchResults, s.ports.Settings.MaxSearchResults)
	}
	output := SearchOutput{
		Query:      input.Query,
		Results:    []SearchResultItem{},
		Pagination: Pagination{StartOffset: input.StartOffset, MaxResults: limit},
	}

	logger.Info("Searching archives for %q", input.Query)
	hits, err := s.search(ctx, input.Query, input.ZimFiles, limit, input.StartOffset)
	if err != nil {
		logger.Error("Error searching archives for %q: %v", input.Query, err)
		output.Status = statusError
		output.Error = err.Error()
		return nil, output, nil
	}

	for _, hit := range hits {
		output.Results = append(output.Results, SearchResultItem{
			ZimFile:    hit.ArchiveID,
			Path:       hit.EntryPath,
			Title:      hit.Title,
			Score:      hit.Score,
			IsRedirect: hit.IsRedirect,
		})
	}
	page := domain.SearchPage{Hits: hits, Offset: input.StartOffset, Limit: limit}
	output.Status = statusSuccess
	output.Count = len(hits)
	output.Pagination.HasMore = page.HasMore()
	return nil, output, nil
}

// search validates the page and searches the named archives, or every
// indexed archive when none are named.
func (s *Server) search(
	ctx context.Context, query string, archives []string, limit, offset int,
) ([]domain.SearchHit, error) {
	if limit <= 0 || limit > s.ports.Settings.MaxSearchResults {
		return nil, fmt.Errorf("%w: max_results must be between 1 and %d",
			domain.ErrInvalidInput, s.ports.Settings.MaxSearchResults)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: start_offset must not be negative", domain.ErrInvalidInput)
	}
	if len(archives) > 0 {
		return s.ports.Search.SearchMany(ctx, archives, query, limit, offset)
	}
	return s.ports.Search.SearchAll(ctx, query, limit, offset)
}

// handleSearchExtract handles the search_and_extract_content tool invocation.
func (s *Server) handleSearchExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchExtractInput,
) (*mcp.CallToolResult, SearchExtractOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer logger.Timed("search_and_extract_content")()

	if input.ContentFormat == "" {
		input.ContentFormat = domain.FormatText.String()
	}
	if input.MaxResults == 0 {
		input.MaxResults = defaultExtractResults
	}
	output := SearchExtractOutput{
		Query:   input.Query,
		Format:  input.ContentFormat,
		Results: []ExtractedEntry{},
	}

	logger.Info("Searching and extracting content for %q", input.Query)
	results, err := s.searchExtract(ctx, input)
	if err != nil {
		logger.Error("Error searching and extracting content for %q: %v", input.Query, err)
		output.Status = statusError
		output.Error = err.Error()
		return nil, output, nil
	}

	output.Status = statusSuccess
	output.Count = len(results)
	output.Results = results
	return nil, output, nil
}

func (s *Server) searchExtract(ctx context.Context, input SearchExtractInput) ([]ExtractedEntry, error) {
	format, err := domain.ParseContentFormat(input.ContentFormat)
	if err != nil || format == domain.FormatRaw {
		return nil, fmt.Errorf("%w: %q (use text or html)", domain.ErrInvalidFormat, input.ContentFormat)
	}
	if input.MaxResults <= 0 || input.MaxResults > maxExtractResults {
		return nil, fmt.Errorf("%w: max_results must be between 1 and %d",
			domain.ErrInvalidInput, maxExtractResults)
	}
	if input.MaxContentLength < 0 {
		return nil, fmt.Errorf("%w: max_content_length must not be negative", domain.ErrInvalidInput)
	}

	var hits []domain.SearchHit
	if len(input.ZimFiles) > 0 {
		hits, err = s.ports.Search.SearchMany(ctx, input.ZimFiles, input.Query, input.MaxResults, 0)
	} else {
		hits, err = s.ports.Search.SearchAll(ctx, input.Query, input.MaxResults, 0)
	}
	if err != nil {
		return nil, err
	}

	extracted := s.ports.Content.ExtractHits(ctx, hits, format)
	results := make([]ExtractedEntry, len(extracted))
	for i := range extracted {
		c := &extracted[i]
		content, truncated := c.Content, c.Truncated
		if input.MaxContentLength > 0 {
			var cut bool
			content, cut = services.Truncate(content, input.MaxContentLength)
			truncated = truncated || cut
		}
		results[i] = ExtractedEntry{
			ZimFile:        c.ArchiveID,
			Path:           c.EntryPath,
			Title:          c.Title,
			Content:        content,
			ContentType:    c.ContentType,
			ContentLength:  c.RawByteLength,
			Preview:        c.Preview,
			Truncated:      truncated,
			IsRedirect:     c.IsRedirect,
			RedirectTarget: c.RedirectTarget,
			Metadata:       c.Metadata,
		}
	}
	return results, nil
}

// handleBrowse handles the browse_zim_entries tool invocation.
func (s *Server) handleBrowse(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BrowseInput,
) (*mcp.CallToolResult, BrowseOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer logger.Timed("browse_zim_entries")()

	if input.Limit == 0 {
		input.Limit = defaultBrowseLimit
	}
	output := BrowseOutput{
		ZimFile:      input.ZimFile,
		PathPattern:  input.PathPattern,
		TitlePattern: input.TitlePattern,
		Entries:      []BrowsedEntry{},
	}

	logger.Info("Browsing entries in %s", input.ZimFile)
	hits, err := s.browse(ctx, input)
	if err != nil {
		logger.Error("Error browsing entries in %s: %v", input.ZimFile, err)
		output.Status = statusError
		output.Error = err.Error()
		return nil, output, nil
	}

	for _, hit := range hits {
		output.Entries = append(output.Entries, BrowsedEntry{
			Path:       hit.EntryPath,
			Title:      hit.Title,
			IsRedirect: hit.IsRedirect,
		})
	}
	output.Status = statusSuccess
	output.Count = len(hits)
	return nil, output, nil
}

func (s *Server) browse(ctx context.Context, input BrowseInput) ([]domain.SearchHit, error) {
	if input.Limit <= 0 || input.Limit > maxBrowseLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidInput, maxBrowseLimit)
	}
	if !s.ports.Archives.Validate(ctx, input.ZimFile) {
		return nil, fmt.Errorf("%w: archive %s is missing or unreadable", domain.ErrNotFound, input.ZimFile)
	}
	return s.ports.Search.Browse(ctx, input.ZimFile, input.PathPattern, input.TitlePattern, input.Limit)
}

// handleRandom handles the get_random_entries tool invocation.
func (s *Server) handleRandom(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RandomInput,
) (*mcp.CallToolResult, RandomOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer logger.Timed("get_random_entries")()

	if input.Count == 0 {
		input.Count = defaultRandomCount
	}

	logger.Info("Getting %d random entries", input.Count)
	entries, err := s.randomEntries(ctx, input)
	if err != nil {
		logger.Error("Error getting random entries: %v", err)
		return nil, RandomOutput{Status: statusError, Error: err.Error(), Entries: []RandomEntry{}}, nil
	}
	return nil, RandomOutput{Status: statusSuccess, Count: len(entries), Entries: entries}, nil
}

// randomEntries draws an equal quota from each archive, at least one,
// stopping at count. An archive that fails is logged and skipped.
func (s *Server) randomEntries(ctx context.Context, input RandomInput) ([]RandomEntry, error) {
	if input.Count <= 0 || input.Count > maxRandomCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", domain.ErrInvalidInput, maxRandomCount)
	}

	files := input.ZimFiles
	if len(files) == 0 {
		archives, err := s.ports.Archives.Discover(ctx, false)
		if err != nil {
			return nil, err
		}
		for i := range archives {
			files = append(files, archives[i].Filename)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no archive files available", domain.ErrNotFound)
	}

	quota := max(1, input.Count/len(files))
	entries := []RandomEntry{}
	for _, file := range files {
		for i := 0; i < quota && len(entries) < input.Count; i++ {
			if err := ctx.Err(); err != nil {
				return entries, nil
			}
			hit, err := s.ports.Archives.RandomEntry(ctx, file)
			if err != nil {
				logger.Warn("Getting random entry from %s: %v", file, err)
				break
			}
			entries = append(entries, RandomEntry{
				ZimFile:    hit.ArchiveID,
				Path:       hit.EntryPath,
				Title:      hit.Title,
				IsRedirect: hit.IsRedirect,
			})
		}
	}
	return entries, nil
}

// handleSummary handles the get_entry_summary tool invocation.
func (s *Server) handleSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummaryInput,
) (*mcp.CallToolResult, SummaryOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer logger.Timed("get_entry_summary")()

	if input.MaxLength == 0 {
		input.MaxLength = defaultSummaryLength
	}
	output := SummaryOutput{
		TableOfContents: []HeadingItem{},
		Links:           []LinkItem{},
	}
	if input.MaxLength < 0 {
		output.Status = statusError
		output.Error = fmt.Sprintf("%v: max_length must not be negative", domain.ErrInvalidInput)
		return nil, output, nil
	}

	logger.Info("Summarising entry %s from %s", input.EntryPath, input.ZimFile)
	outline, err := s.ports.Content.Outline(ctx, input.ZimFile, domain.ByPath(input.EntryPath), input.MaxLength)
	if err != nil {
		logger.Error("Error summarising entry %s from %s: %v", input.EntryPath, input.ZimFile, err)
		output.Status = statusError
		output.Error = err.Error()
		return nil, output, nil
	}

	output.Status = statusSuccess
	output.Path = outline.EntryPath
	output.Title = outline.Title
	output.IsRedirect = outline.IsRedirect
	output.RedirectTarget = outline.RedirectTarget
	output.Metadata = outline.Metadata
	output.Summary = outline.Summary
	for _, h := range outline.Headings {
		output.TableOfContents = append(output.TableOfContents, HeadingItem{Level: h.Level, ID: h.ID, Text: h.Text})
	}
	for _, l := range outline.Links {
		output.Links = append(output.Links, LinkItem{Href: l.Href, Text: l.Text})
	}
	return nil, output, nil
}

func fileInfo(d *domain.ArchiveDescriptor) FileInfo {
	return FileInfo{
		Filename:         d.Filename,
		Title:            d.Title,
		Description:      d.Description,
		Size:             d.SizeFormatted,
		ArticleCount:     d.ArticleCount,
		MediaCount:       d.MediaCount,
		Language:         d.Language,
		Creator:          d.Creator,
		Date:             d.Date,
		HasFulltextIndex: d.HasFulltextIndex,
		HasTitleIndex:    d.HasTitleIndex,
	}
}

func archiveMetadata(d *domain.ArchiveDescriptor) ArchiveMetadata {
	return ArchiveMetadata{
		Filename:         d.Filename,
		Title:            d.Title,
		Description:      d.Description,
		Size:             d.SizeBytes,
		SizeFormatted:    d.SizeFormatted,
		ArticleCount:     d.ArticleCount,
		MediaCount:       d.MediaCount,
		Language:         d.Language,
		Creator:          d.Creator,
		Date:             d.Date,
		HasFulltextIndex: d.HasFulltextIndex,
		HasTitleIndex:    d.HasTitleIndex,
		UUID:             d.UUID,
		Metadata:         d.Metadata,
	}
}
