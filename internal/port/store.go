package port

import "framesearch/internal/domain"

// EmbeddingStore persists per-video frame embeddings. All vectors in a
// store share one dimensionality, fixed by the first non-empty Put.
type EmbeddingStore interface {
	// Put replaces the full embedding set for video.ID atomically.
	// Calling it again with identical input is a no-op in effect.
	// Frame indices must be strictly increasing; every vector must match
	// the store's established dimensionality.
	Put(video domain.Video, embeddings []domain.FrameEmbedding) error

	// All scans every stored embedding across all videos, in stable order:
	// video ID ascending, then frame index ascending.
	All() ([]domain.StoredEmbedding, error)

	// Dimensionality returns the store's fixed vector length, or
	// domain.ErrEmptyStore when no embeddings have been written yet.
	Dimensionality() (int, error)

	GetVideo(id string) (domain.Video, error)

	ListVideos() ([]domain.Video, error)

	Stats() (domain.Stats, error)

	Close() error
}
