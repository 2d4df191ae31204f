package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
)

// Ensure Searcher implements the interface.
var _ driven.Searcher = (*Searcher)(nil)

// Searcher runs FTS5 queries. Results come in bm25 rank order and the
// score is the negated bm25 value, so higher is better.
type Searcher struct {
	db *sql.DB
}

// matchExpression quotes every term of query so user input is never
// parsed as FTS5 syntax. Terms are ANDed.
func matchExpression(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// Search returns up to limit matching paths starting at offset.
func (s *Searcher) Search(ctx context.Context, query string, offset, limit int) (*driven.SearchResult, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return &driven.SearchResult{}, nil
	}

	estimated, err := s.EstimatedMatches(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, -bm25(`+fulltextTable+`)
		FROM `+fulltextTable+`
		WHERE `+fulltextTable+` MATCH ?
		ORDER BY rank
		LIMIT ? OFFSET ?
	`, match, limit, max(0, offset))
	if err != nil {
		return nil, fmt.Errorf("querying full-text index: %w", err)
	}
	defer rows.Close()

	result := &driven.SearchResult{Estimated: estimated}
	for rows.Next() {
		var path string
		var score float64
		if err := rows.Scan(&path, &score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		result.Paths = append(result.Paths, path)
		result.Scores = append(result.Scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return result, nil
}

// EstimatedMatches returns the number of rows matching query.
func (s *Searcher) EstimatedMatches(ctx context.Context, query string) (int, error) {
	match := matchExpression(query)
	if match == "" {
		return 0, nil
	}
	var n int
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+fulltextTable+" WHERE "+fulltextTable+" MATCH ?", match)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting matches: %w", err)
	}
	return n, nil
}
