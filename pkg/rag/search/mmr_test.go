package search

import (
	"math"
	"testing"

	"announce-qa-be/internal/entity"
	"announce-qa-be/internal/repository/contract"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func scoredChunk(id string, sim float64, emb []float32) *contract.ScoredChunk {
	return &contract.ScoredChunk{
		Chunk:      &entity.AnnouncementChunk{Content: id, Embedding: emb},
		Similarity: sim,
	}
}

func TestMMRSelectPrefersDiversity(t *testing.T) {
	// Two near-duplicates lead the pool; a distinct third follows. With
	// lambda 0.5 the duplicate should lose its slot to the distinct one.
	pool := []*contract.ScoredChunk{
		scoredChunk("a", 0.95, []float32{1, 0}),
		scoredChunk("a-dup", 0.94, []float32{1, 0.01}),
		scoredChunk("b", 0.80, []float32{0, 1}),
	}

	selected := mmrSelect(pool, 2, 0.5)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if selected[0].Chunk.Content != "a" {
		t.Errorf("first pick must be the top similarity hit, got %s", selected[0].Chunk.Content)
	}
	if selected[1].Chunk.Content != "b" {
		t.Errorf("second pick should be the diverse candidate, got %s", selected[1].Chunk.Content)
	}
}

func TestMMRSelectPureSimilarity(t *testing.T) {
	pool := []*contract.ScoredChunk{
		scoredChunk("a", 0.95, []float32{1, 0}),
		scoredChunk("a-dup", 0.94, []float32{1, 0.01}),
		scoredChunk("b", 0.80, []float32{0, 1}),
	}

	// lambda 1 ignores redundancy entirely.
	selected := mmrSelect(pool, 2, 1.0)
	if selected[0].Chunk.Content != "a" || selected[1].Chunk.Content != "a-dup" {
		t.Errorf("lambda=1 must keep similarity order, got %s then %s",
			selected[0].Chunk.Content, selected[1].Chunk.Content)
	}
}

func TestMMRSelectKLargerThanPool(t *testing.T) {
	pool := []*contract.ScoredChunk{
		scoredChunk("a", 0.9, []float32{1, 0}),
	}
	selected := mmrSelect(pool, 5, 0.5)
	if len(selected) != 1 {
		t.Errorf("expected whole pool back, got %d", len(selected))
	}
}
