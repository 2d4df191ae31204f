package driving

import (
	"context"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

// ArchiveService exposes the archive registry to external actors.
type ArchiveService interface {
	// Discover lists the archives under the archive directory, sorted by
	// filename. A non-forced call may return a memoized list.
	Discover(ctx context.Context, forceRefresh bool) ([]domain.ArchiveDescriptor, error)

	// Describe returns the descriptor of one archive.
	Describe(ctx context.Context, name string) (*domain.ArchiveDescriptor, error)

	// DirectoryStats summarises the archive directory.
	DirectoryStats(ctx context.Context) domain.DirectoryStats

	// IsDescribed reports whether a descriptor for name is cached.
	IsDescribed(name string) bool

	// Validate reports whether name resolves to a readable archive.
	Validate(ctx context.Context, name string) bool

	// RandomEntry returns one pseudo-random entry of the archive as a hit.
	RandomEntry(ctx context.Context, name string) (*domain.SearchHit, error)

	// ClearCaches releases every open handle and drops all descriptors.
	ClearCaches()

	// CacheStats reports cache occupancy.
	CacheStats() domain.RegistryStats
}
