package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"framesearch/internal/adapter/ranker"
	"framesearch/internal/domain"
	"framesearch/internal/port"
)

// SearchPipeline embeds a free-text query and ranks every stored frame
// embedding against it. Implements port.Searcher.
type SearchPipeline struct {
	store    port.EmbeddingStore
	embedder port.Embedder
	logger   *slog.Logger
}

var _ port.Searcher = (*SearchPipeline)(nil)

func NewSearchPipeline(store port.EmbeddingStore, embedder port.Embedder, logger *slog.Logger) *SearchPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchPipeline{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// Search returns the top-k frames most similar to the query text.
// An empty store surfaces domain.ErrEmptyStore, which callers use to
// tell "nothing ingested yet" from "nothing matched".
func (p *SearchPipeline) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query text must not be blank", domain.ErrEmptyQuery)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidConfiguration, k)
	}

	dim, err := p.store.Dimensionality()
	if err != nil {
		return nil, err
	}

	vec, err := p.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}
	if len(vec) != dim {
		return nil, fmt.Errorf("%w: query embedded to %d dimensions, store holds %d",
			domain.ErrDimensionMismatch, len(vec), dim)
	}

	candidates, err := p.store.All()
	if err != nil {
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}

	results, err := ranker.Rank(ctx, vec, candidates, k)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("search complete",
		"query", query,
		"candidates", len(candidates),
		"results", len(results),
	)
	return results, nil
}
