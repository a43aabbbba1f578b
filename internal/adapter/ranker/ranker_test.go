package ranker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"framesearch/internal/domain"
)

func candidate(videoID string, frameIndex int, vector ...float32) domain.StoredEmbedding {
	return domain.StoredEmbedding{
		VideoID: videoID,
		Embedding: domain.FrameEmbedding{
			FrameIndex: frameIndex,
			Vector:     vector,
		},
	}
}

func TestCosineIdenticalVectors(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	sim := Cosine(v, v)
	if math.Abs(sim-1.0) > 1e-6 {
		t.Errorf("identical vectors should score 1.0, got %v", sim)
	}
}

func TestCosineBounds(t *testing.T) {
	pairs := [][2][]float32{
		{{1, 0}, {0, 1}},
		{{1, 2, 3}, {-3, -2, -1}},
		{{0.5, 0.5}, {-0.5, -0.5}},
		{{10, -4, 2}, {0.1, 0.2, 0.3}},
	}
	for _, p := range pairs {
		sim := Cosine(p[0], p[1])
		if sim < -1.0-1e-9 || sim > 1.0+1e-9 {
			t.Errorf("cosine out of bounds: %v for %v vs %v", sim, p[0], p[1])
		}
	}

	opposite := Cosine([]float32{1, 1}, []float32{-1, -1})
	if math.Abs(opposite+1.0) > 1e-6 {
		t.Errorf("opposite vectors should score -1.0, got %v", opposite)
	}
}

func TestCosineZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0}
	nonzero := []float32{1, 2, 3}

	if sim := Cosine(zero, nonzero); sim != 0 {
		t.Errorf("zero vector on the left should score 0.0, got %v", sim)
	}
	if sim := Cosine(nonzero, zero); sim != 0 {
		t.Errorf("zero vector on the right should score 0.0, got %v", sim)
	}
	if sim := Cosine(zero, zero); sim != 0 {
		t.Errorf("two zero vectors should score 0.0, got %v", sim)
	}
}

func TestRankTopK(t *testing.T) {
	query := []float32{1, 0}
	candidates := []domain.StoredEmbedding{
		candidate("v1", 0, 1, 0),     // score 1.0
		candidate("v1", 30, 0, 1),    // score 0.0
		candidate("v2", 0, 1, 1),     // score ~0.707
		candidate("v2", 30, -1, 0),   // score -1.0
		candidate("v2", 60, 1, 0.01), // score ~1.0-
	}

	results, err := Rank(context.Background(), query, candidates, 3)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}
	if results[0].VideoID != "v1" || results[0].FrameIndex != 0 {
		t.Errorf("expected v1/0 first, got %s/%d", results[0].VideoID, results[0].FrameIndex)
	}

	// Every returned score must be >= every excluded candidate's score.
	lowest := results[len(results)-1].Score
	for _, excluded := range []float64{0.0, -1.0} {
		if lowest < excluded {
			t.Errorf("excluded candidate with score %v outranks returned %v", excluded, lowest)
		}
	}
}

func TestRankTieBreak(t *testing.T) {
	query := []float32{1, 0}
	// All candidates identical to the query: every score ties at 1.0.
	candidates := []domain.StoredEmbedding{
		candidate("v2", 30, 1, 0),
		candidate("v1", 60, 1, 0),
		candidate("v2", 0, 1, 0),
		candidate("v1", 30, 1, 0),
	}

	results, err := Rank(context.Background(), query, candidates, 4)
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		videoID    string
		frameIndex int
	}{
		{"v1", 30}, {"v1", 60}, {"v2", 0}, {"v2", 30},
	}
	for i, w := range want {
		if results[i].VideoID != w.videoID || results[i].FrameIndex != w.frameIndex {
			t.Errorf("position %d: expected %s/%d, got %s/%d",
				i, w.videoID, w.frameIndex, results[i].VideoID, results[i].FrameIndex)
		}
	}
}

func TestRankDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var candidates []domain.StoredEmbedding
	for v := 0; v < 5; v++ {
		for f := 0; f < 20; f++ {
			vec := []float32{rng.Float32(), rng.Float32(), rng.Float32()}
			candidates = append(candidates, candidate(fmt.Sprintf("video-%d", v), f*30, vec...))
		}
	}
	query := []float32{0.5, 0.5, 0.5}

	first, err := Rank(context.Background(), query, candidates, 10)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		// Shuffle the candidate order; output must not change.
		rng.Shuffle(len(candidates), func(a, b int) {
			candidates[a], candidates[b] = candidates[b], candidates[a]
		})
		again, err := Rank(context.Background(), query, candidates, 10)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("ranking not deterministic across input orderings")
		}
	}
}

func TestRankKExceedsCandidates(t *testing.T) {
	query := []float32{1, 0}
	candidates := []domain.StoredEmbedding{
		candidate("v1", 0, 1, 0),
		candidate("v1", 30, 0, 1),
	}

	results, err := Rank(context.Background(), query, candidates, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected all 2 candidates, got %d", len(results))
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	results, err := Rank(context.Background(), []float32{1, 0}, nil, 5)
	if err != nil {
		t.Fatalf("empty candidate set should not be an error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRankDimensionMismatch(t *testing.T) {
	candidates := []domain.StoredEmbedding{
		candidate("v1", 0, 1, 0, 0),
	}
	_, err := Rank(context.Background(), []float32{1, 0}, candidates, 5)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRankInvalidK(t *testing.T) {
	candidates := []domain.StoredEmbedding{candidate("v1", 0, 1, 0)}
	for _, k := range []int{0, -1} {
		if _, err := Rank(context.Background(), []float32{1, 0}, candidates, k); !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("k=%d: expected ErrInvalidConfiguration, got %v", k, err)
		}
	}
}

func TestRankCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candidates := []domain.StoredEmbedding{candidate("v1", 0, 1, 0)}
	_, err := Rank(ctx, []float32{1, 0}, candidates, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func BenchmarkRank(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	dim := 512
	candidates := make([]domain.StoredEmbedding, 10000)
	for i := range candidates {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = rng.Float32()
		}
		candidates[i] = candidate(fmt.Sprintf("video-%d", i/100), (i%100)*30, vec...)
	}
	query := make([]float32, dim)
	for j := range query {
		query[j] = rng.Float32()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Rank(context.Background(), query, candidates, 10); err != nil {
			b.Fatal(err)
		}
	}
}
