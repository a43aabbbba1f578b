package embedding

import (
	"context"

	"framesearch/internal/port"
)

// MockEmbedder produces deterministic vectors derived from the input
// bytes. Useful for tests and offline runs; identical input always maps
// to the identical vector.
type MockEmbedder struct {
	dimension int
}

var _ port.Embedder = (*MockEmbedder)(nil)

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.fold([]byte(text)), nil
}

func (e *MockEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	return e.fold(image), nil
}

func (e *MockEmbedder) fold(data []byte) []float32 {
	vec := make([]float32, e.dimension)
	for i, b := range data {
		vec[i%e.dimension] += float32(b) / 1000.0
	}
	return vec
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
