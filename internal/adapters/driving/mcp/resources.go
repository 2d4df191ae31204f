package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

const (
	// uriScheme is the URI scheme of archive resources.
	uriScheme = "zim://"

	filePrefix     = uriScheme + "file/"
	metadataSuffix = "/metadata"
	entryInfix     = "/entry/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing archives.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "files",
		Name:        "files",
		Description: "List of all archive files in the archive directory",
		MIMEType:    "application/json",
	}, s.handleFilesResource)

	// Template for archive metadata.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: filePrefix + "{filename}" + metadataSuffix,
		Name:        "file-metadata",
		Description: "Metadata of one archive file",
		MIMEType:    "application/json",
	}, s.handleMetadataResource)

	// Template for entry text. The path may contain slashes.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: filePrefix + "{filename}" + entryInfix + "{+path}",
		Name:        "file-entry",
		Description: "Plain-text content of one archive entry",
		MIMEType:    "text/plain",
	}, s.handleEntryResource)
}

// handleFilesResource returns the discovered archives as JSON.
func (s *Server) handleFilesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	archives, err := s.ports.Archives.Discover(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}

	files := make([]FileInfo, len(archives))
	for i := range archives {
		files[i] = fileInfo(&archives[i])
	}
	return jsonResource(req.Params.URI, files)
}

// handleMetadataResource returns the metadata of one archive as JSON.
func (s *Server) handleMetadataResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	filename, ok := parseMetadataURI(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	desc, err := s.ports.Archives.Describe(ctx, filename)
	if err != nil {
		return nil, resourceError(req.Params.URI, "describing archive", err)
	}
	return jsonResource(req.Params.URI, archiveMetadata(desc))
}

// handleEntryResource returns the text content of one entry.
func (s *Server) handleEntryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	filename, path, ok := parseEntryURI(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	content, err := s.ports.Content.Extract(ctx, filename, domain.ByPath(path), domain.FormatText)
	if err != nil {
		return nil, resourceError(req.Params.URI, "reading entry", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     content.Content,
		}},
	}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// resourceError maps missing or out-of-directory targets to the protocol
// not-found error.
func resourceError(uri, what string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPathEscape) {
		return mcp.ResourceNotFoundError(uri)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// parseMetadataURI extracts the filename from zim://file/{filename}/metadata.
func parseMetadataURI(uri string) (string, bool) {
	if !strings.HasPrefix(uri, filePrefix) || !strings.HasSuffix(uri, metadataSuffix) {
		return "", false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(uri, filePrefix), metadataSuffix)
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	filename, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return filename, true
}

// parseEntryURI extracts the filename and entry path from
// zim://file/{filename}/entry/{path}.
func parseEntryURI(uri string) (filename, path string, ok bool) {
	if !strings.HasPrefix(uri, filePrefix) {
		return "", "", false
	}
	rawFile, rawPath, found := strings.Cut(strings.TrimPrefix(uri, filePrefix), entryInfix)
	if !found || rawFile == "" || rawPath == "" || strings.Contains(rawFile, "/") {
		return "", "", false
	}
	filename, err := url.PathUnescape(rawFile)
	if err != nil {
		return "", "", false
	}
	path, err = url.PathUnescape(rawPath)
	if err != nil {
		return "", "", false
	}
	return filename, path, true
}
