package ranker

import (
	"context"
	"fmt"
	"math"
	"sort"

	"framesearch/internal/domain"
)

// Rank scores every candidate against the query vector by cosine
// similarity and returns the top k, descending by score. Equal scores are
// ordered by (video ID, frame index) ascending, so repeated calls over
// the same candidates produce identical output regardless of input order.
//
// The scan is exact brute force. The context is checked while scoring so
// large stores stay cancellable.
func Rank(ctx context.Context, query []float32, candidates []domain.StoredEmbedding, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidConfiguration, k)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scored := make([]domain.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(c.Embedding.Vector) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, candidate %s/%d has %d",
				domain.ErrDimensionMismatch, len(query), c.VideoID, c.Embedding.FrameIndex, len(c.Embedding.Vector))
		}
		scored = append(scored, domain.SearchResult{
			VideoID:    c.VideoID,
			FrameIndex: c.Embedding.FrameIndex,
			Score:      Cosine(query, c.Embedding.Vector),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].VideoID != scored[j].VideoID {
			return scored[i].VideoID < scored[j].VideoID
		}
		return scored[i].FrameIndex < scored[j].FrameIndex
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Cosine computes the cosine similarity between two equal-length vectors,
// accumulating in float64. A zero vector on either side scores 0.0; that
// is "no signal", not an error.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
