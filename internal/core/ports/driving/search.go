package driving

import (
	"context"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// SearchMany searches the named archives and returns one merged page.
	SearchMany(ctx context.Context, archives []string, query string, limit, offset int) ([]domain.SearchHit, error)

	// SearchAll searches every discovered archive with a full-text index.
	SearchAll(ctx context.Context, query string, limit, offset int) ([]domain.SearchHit, error)

	// EstimatedMatches returns the estimated match count in one archive.
	EstimatedMatches(ctx context.Context, archive, query string) (int, error)

	// Browse samples entries whose path and title contain the given
	// substrings. It is best-effort and non-exhaustive.
	Browse(ctx context.Context, archive, pathPattern, titlePattern string, limit int) ([]domain.SearchHit, error)

	// ClearCaches drops cached results and searchers.
	ClearCaches()

	// CacheStats reports cache occupancy.
	CacheStats() domain.SearchStats
}
