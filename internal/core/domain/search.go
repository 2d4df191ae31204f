package domain

// MaxQueryLength is the longest accepted search query, in characters.
const MaxQueryLength = 1000

// SearchHit represents a single search or browse result inside one archive.
// ArchiveID always names an archive that was opened and queried by the
// call that produced the hit.
type SearchHit struct {
	// ArchiveID is the archive filename the hit belongs to.
	ArchiveID string

	// EntryPath is the path of the entry inside the archive.
	EntryPath string

	// Title is the entry title.
	Title string

	// Score is the capability's relevance score, 0 when unranked.
	Score float64

	// IsRedirect reports whether the entry redirects to another entry.
	IsRedirect bool
}

// SearchPage is one page of a paginated search.
type SearchPage struct {
	// Hits contains at most Limit results.
	Hits []SearchHit

	// Offset is the index of the first hit in the merged result list.
	Offset int

	// Limit is the requested page size.
	Limit int
}

// HasMore reports whether another page may follow this one.
// A page is considered full, and therefore possibly followed by
// more results, when it holds exactly Limit hits.
func (p SearchPage) HasMore() bool {
	return p.Limit > 0 && len(p.Hits) == p.Limit
}

// SearchStats reports the state of the search caches.
type SearchStats struct {
	ResultCacheSize     int
	ResultCacheCapacity int
	SearcherCacheSize   int
}
