package port

import (
	"context"

	"framesearch/internal/domain"
)

// Searcher answers a free-text query with the top-k most similar frames.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}
