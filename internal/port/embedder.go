package port

import "context"

// Embedder produces fixed-length vectors for images and text in a shared
// embedding space (CLIP-style). Implementations must be deterministic for
// identical input within a process lifetime and must fail cleanly on
// unsupported input rather than returning garbage.
type Embedder interface {
	// EmbedImage embeds a single JPEG-encoded frame.
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)

	// EmbedText embeds a free-text query.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
