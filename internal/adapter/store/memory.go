package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"framesearch/internal/domain"
	"framesearch/internal/port"
)

// MemoryStore is an in-process EmbeddingStore for tests and embedded use.
// A single RWMutex guards all state, so a Put is atomic with respect to
// readers and concurrent Puts never interleave.
type MemoryStore struct {
	mu         sync.RWMutex
	videos     map[string]domain.Video
	embeddings map[string][]domain.FrameEmbedding
	dimension  int
}

var _ port.EmbeddingStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		videos:     make(map[string]domain.Video),
		embeddings: make(map[string][]domain.FrameEmbedding),
	}
}

func (s *MemoryStore) Put(video domain.Video, embeddings []domain.FrameEmbedding) error {
	if video.ID == "" {
		return fmt.Errorf("%w: video ID must not be empty", domain.ErrInvalidConfiguration)
	}
	if err := validateEmbeddings(embeddings); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(embeddings) > 0 {
		if s.dimension == 0 {
			s.dimension = len(embeddings[0].Vector)
		} else if len(embeddings[0].Vector) != s.dimension {
			return fmt.Errorf("%w: store holds %d-dimensional vectors, got %d",
				domain.ErrDimensionMismatch, s.dimension, len(embeddings[0].Vector))
		}
	}

	copied := make([]domain.FrameEmbedding, len(embeddings))
	copy(copied, embeddings)

	if prev, ok := s.videos[video.ID]; ok {
		video.CreatedAt = prev.CreatedAt
	} else if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now()
	}
	video.FrameCount = len(copied)
	s.videos[video.ID] = video
	s.embeddings[video.ID] = copied
	return nil
}

func (s *MemoryStore) All() ([]domain.StoredEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.embeddings))
	for id := range s.embeddings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []domain.StoredEmbedding
	for _, id := range ids {
		for _, e := range s.embeddings[id] {
			out = append(out, domain.StoredEmbedding{VideoID: id, Embedding: e})
		}
	}
	return out, nil
}

func (s *MemoryStore) Dimensionality() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return 0, domain.ErrEmptyStore
	}
	return s.dimension, nil
}

func (s *MemoryStore) GetVideo(id string) (domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.videos[id]
	if !ok {
		return domain.Video{}, fmt.Errorf("video not found: %s", id)
	}
	return video, nil
}

func (s *MemoryStore) ListVideos() ([]domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	videos := make([]domain.Video, 0, len(s.videos))
	for _, v := range s.videos {
		videos = append(videos, v)
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].ID < videos[j].ID })
	return videos, nil
}

func (s *MemoryStore) Stats() (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := domain.Stats{
		TotalVideos: len(s.videos),
		Dimension:   s.dimension,
	}
	for _, embs := range s.embeddings {
		stats.TotalEmbeddings += len(embs)
	}
	return stats, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
