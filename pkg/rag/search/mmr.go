package search

import (
	"math"

	"announce-qa-be/internal/repository/contract"
)

// cosineSimilarity over float32 vectors. Returns 0 for mismatched or zero
// vectors rather than NaN.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
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

// mmrSelect greedily picks k candidates by maximal marginal relevance:
// lambda weighs similarity to the query against redundancy with already
// selected results (lambda 1 = pure similarity, 0 = pure diversity).
// Candidates must arrive ordered by query similarity; their Similarity
// field is used as the relevance term.
func mmrSelect(pool []*contract.ScoredChunk, k int, lambda float64) []*contract.ScoredChunk {
	if k >= len(pool) {
		return pool
	}

	selected := make([]*contract.ScoredChunk, 0, k)
	remaining := make([]*contract.ScoredChunk, len(pool))
	copy(remaining, pool)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)

		for i, cand := range remaining {
			redundancy := 0.0
			for _, sel := range selected {
				if sim := cosineSimilarity(cand.Chunk.Embedding, sel.Chunk.Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*cand.Similarity - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}
