package rerank

import "context"

// ScoredIndex maps a candidate passage (by its index in the input slice) to
// a cross-encoder relevance score for the query.
type ScoredIndex struct {
	Index int
	Score float64
}

// Reranker scores (query, passage) pairs with a finer-grained relevance model
// than the bi-encoder used for retrieval. Results are sorted by descending
// score and truncated to topN.
type Reranker interface {
	Rerank(ctx context.Context, query string, passages []string, topN int) ([]ScoredIndex, error)
}
