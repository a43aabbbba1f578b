package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"framesearch/internal/domain"
)

func newTestStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	st, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st, path
}

func embeddings(indices []int, vectors ...[]float32) []domain.FrameEmbedding {
	out := make([]domain.FrameEmbedding, len(indices))
	for i, idx := range indices {
		out[i] = domain.FrameEmbedding{FrameIndex: idx, Vector: vectors[i]}
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	st, path := newTestStore(t)

	// 3 videos x 5 embeddings with awkward float values.
	want := make(map[string][]domain.FrameEmbedding)
	for v := 0; v < 3; v++ {
		id := fmt.Sprintf("video-%d", v)
		var embs []domain.FrameEmbedding
		for f := 0; f < 5; f++ {
			embs = append(embs, domain.FrameEmbedding{
				FrameIndex: f * 30,
				Vector:     []float32{float32(v) + 0.1, float32(f) * 0.3333333, -1.5e-7, 0.0},
			})
		}
		want[id] = embs
		if err := st.Put(domain.Video{ID: id, Title: id}, embs); err != nil {
			t.Fatal(err)
		}
	}

	// Reopen from disk and verify bit-identical vectors in stable order.
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	all, err := reopened.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 15 {
		t.Fatalf("expected 15 embeddings, got %d", len(all))
	}

	i := 0
	for v := 0; v < 3; v++ {
		id := fmt.Sprintf("video-%d", v)
		for f := 0; f < 5; f++ {
			got := all[i]
			if got.VideoID != id {
				t.Fatalf("position %d: expected video %s, got %s", i, id, got.VideoID)
			}
			if !reflect.DeepEqual(got.Embedding, want[id][f]) {
				t.Errorf("position %d: embedding does not round-trip: got %+v want %+v", i, got.Embedding, want[id][f])
			}
			i++
		}
	}
}

func TestDimensionality(t *testing.T) {
	st, _ := newTestStore(t)

	if _, err := st.Dimensionality(); !errors.Is(err, domain.ErrEmptyStore) {
		t.Fatalf("expected ErrEmptyStore on fresh store, got %v", err)
	}

	err := st.Put(domain.Video{ID: "v1"}, embeddings([]int{0}, []float32{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}

	dim, err := st.Dimensionality()
	if err != nil {
		t.Fatal(err)
	}
	if dim != 3 {
		t.Errorf("expected dimension 3, got %d", dim)
	}
}

func TestPutDimensionMismatch(t *testing.T) {
	st, _ := newTestStore(t)

	if err := st.Put(domain.Video{ID: "v1"}, embeddings([]int{0}, []float32{1, 2, 3})); err != nil {
		t.Fatal(err)
	}

	err := st.Put(domain.Video{ID: "v2"}, embeddings([]int{0}, []float32{1, 2}))
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}

	// Failed put must not be partially applied.
	all, err := st.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].VideoID != "v1" {
		t.Errorf("store should hold only v1 after rejected put, got %+v", all)
	}
}

func TestPutMixedDimensionsRejected(t *testing.T) {
	st, _ := newTestStore(t)

	err := st.Put(domain.Video{ID: "v1"},
		embeddings([]int{0, 30}, []float32{1, 2, 3}, []float32{1, 2}))
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := st.Dimensionality(); !errors.Is(err, domain.ErrEmptyStore) {
		t.Errorf("rejected put must not establish a dimension, got %v", err)
	}
}

func TestPutNonIncreasingIndices(t *testing.T) {
	st, _ := newTestStore(t)

	err := st.Put(domain.Video{ID: "v1"},
		embeddings([]int{30, 30}, []float32{1}, []float32{2}))
	if !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for duplicate index, got %v", err)
	}

	err = st.Put(domain.Video{ID: "v1"},
		embeddings([]int{60, 30}, []float32{1}, []float32{2}))
	if !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for decreasing index, got %v", err)
	}
}

func TestPutReplaces(t *testing.T) {
	st, _ := newTestStore(t)

	if err := st.Put(domain.Video{ID: "v1"}, embeddings([]int{0, 30}, []float32{1}, []float32{2})); err != nil {
		t.Fatal(err)
	}
	if err := st.Put(domain.Video{ID: "v1"}, embeddings([]int{0}, []float32{9})); err != nil {
		t.Fatal(err)
	}

	all, err := st.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 embedding after replace, got %d", len(all))
	}
	if all[0].Embedding.Vector[0] != 9 {
		t.Errorf("expected replaced vector, got %+v", all[0].Embedding)
	}

	video, err := st.GetVideo("v1")
	if err != nil {
		t.Fatal(err)
	}
	if video.FrameCount != 1 {
		t.Errorf("expected frame count 1 after replace, got %d", video.FrameCount)
	}
}

func TestPutIdempotent(t *testing.T) {
	st, _ := newTestStore(t)

	embs := embeddings([]int{0, 30, 60}, []float32{1, 2}, []float32{3, 4}, []float32{5, 6})
	for i := 0; i < 2; i++ {
		if err := st.Put(domain.Video{ID: "v1", Title: "first"}, embs); err != nil {
			t.Fatal(err)
		}
	}

	all, err := st.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 embeddings after repeated identical put, got %d", len(all))
	}
}

func TestEmptyVideo(t *testing.T) {
	st, _ := newTestStore(t)

	// A video with no sampled frames is valid: listed, but resultless.
	if err := st.Put(domain.Video{ID: "empty", Title: "empty"}, nil); err != nil {
		t.Fatal(err)
	}

	videos, err := st.ListVideos()
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 1 {
		t.Fatalf("expected 1 video, got %d", len(videos))
	}

	if _, err := st.Dimensionality(); !errors.Is(err, domain.ErrEmptyStore) {
		t.Errorf("empty video must not fix the store dimension, got %v", err)
	}
}

func TestStats(t *testing.T) {
	st, _ := newTestStore(t)

	if err := st.Put(domain.Video{ID: "v1"}, embeddings([]int{0, 30}, []float32{1, 2}, []float32{3, 4})); err != nil {
		t.Fatal(err)
	}
	if err := st.Put(domain.Video{ID: "v2"}, embeddings([]int{0}, []float32{5, 6})); err != nil {
		t.Fatal(err)
	}

	stats, err := st.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalVideos != 2 || stats.TotalEmbeddings != 3 || stats.Dimension != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
