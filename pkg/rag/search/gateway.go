package search

import (
	"context"
	"fmt"
	"sort"

	"announce-qa-be/internal/pkg/logger"
	"announce-qa-be/internal/repository/contract"
	"announce-qa-be/pkg/embedding"
	"announce-qa-be/pkg/rag"
	"announce-qa-be/pkg/rerank"
)

// filterOverFetch is how many times the target count we pull before
// post-filtering; the vector index cannot express array-membership
// predicates natively.
const filterOverFetch = 3

// Config encapsulates retrieval tuning.
type Config struct {
	FetchK     int // candidate pool before MMR down-selection
	MMREnabled bool
	MMRLambda  float64 // 0 = diversity, 1 = pure similarity
}

// Gateway runs adaptive vector search: similarity or MMR diversity mode,
// in-process metadata filtering with graceful fallback, and optional
// cross-encoder re-ranking.
type Gateway struct {
	embedder embedding.EmbeddingProvider
	repo     contract.AnnouncementChunkRepository
	reranker rerank.Reranker // nil disables re-ranking
	cfg      Config
	logger   logger.ILogger
}

func NewGateway(
	embedder embedding.EmbeddingProvider,
	repo contract.AnnouncementChunkRepository,
	reranker rerank.Reranker,
	cfg Config,
	log logger.ILogger,
) *Gateway {
	return &Gateway{
		embedder: embedder,
		repo:     repo,
		reranker: reranker,
		cfg:      cfg,
		logger:   log,
	}
}

// Retrieve returns up to k documents for the query. Errors surface only when
// the embedding call or the index itself is unreachable; filter starvation
// and re-ranker failures degrade gracefully instead.
func (g *Gateway) Retrieve(ctx context.Context, query string, k int, filters rag.Filters) ([]rag.Document, error) {
	emb, err := g.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	fetch := k
	if g.cfg.MMREnabled {
		fetch = max(g.cfg.FetchK, 2*k)
	}
	if !filters.Empty() && filterOverFetch*k > fetch {
		fetch = filterOverFetch * k
	}

	pool, err := g.repo.SearchSimilarWithScore(ctx, emb.Values, fetch)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	candidates := pool
	if !filters.Empty() {
		candidates = g.applyFilters(pool, filters, k)
	}

	if g.cfg.MMREnabled {
		candidates = mmrSelect(candidates, k, g.cfg.MMRLambda)
	}
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	docs := toDocuments(candidates)

	if g.reranker != nil {
		docs = g.rerankDocuments(ctx, query, docs)
	}

	g.logger.Info("RETRIEVE", "Documents retrieved", map[string]interface{}{
		"query": query,
		"k":     k,
		"pool":  len(pool),
		"hits":  len(docs),
	})
	return docs, nil
}

// applyFilters keeps chunks whose metadata overlaps the filter in any of the
// three categories (OR semantics: a tag match alone qualifies). If fewer
// than k/2 chunks survive, the filter is discarded so it never starves the
// pipeline of context.
func (g *Gateway) applyFilters(pool []*contract.ScoredChunk, filters rag.Filters, k int) []*contract.ScoredChunk {
	var filtered []*contract.ScoredChunk
	for _, sc := range pool {
		if matchesFilters(sc, filters) {
			filtered = append(filtered, sc)
		}
	}

	if len(filtered) < k/2 {
		g.logger.Info("RETRIEVE", "Filter fallback: too few matches, using unfiltered candidates", map[string]interface{}{
			"matched": len(filtered),
			"needed":  k / 2,
		})
		return pool
	}
	return filtered
}

func matchesFilters(sc *contract.ScoredChunk, filters rag.Filters) bool {
	if overlapStrings(sc.Chunk.TargetDepartments, filters.Departments) {
		return true
	}
	if overlapInts(sc.Chunk.TargetGrades, filters.Grades) {
		return true
	}
	return overlapStrings(sc.Chunk.Tags, filters.Tags)
}

func overlapStrings(have, want []string) bool {
	if len(have) == 0 || len(want) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func overlapInts(have, want []int) bool {
	if len(have) == 0 || len(want) == 0 {
		return false
	}
	set := make(map[int]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

// rerankDocuments re-scores the candidate set with the cross-encoder and
// reorders by descending relevance. Scorer failure keeps the original
// similarity order; it never errors the whole request.
func (g *Gateway) rerankDocuments(ctx context.Context, query string, docs []rag.Document) []rag.Document {
	if len(docs) < 2 {
		return docs
	}

	passages := make([]string, len(docs))
	for i, d := range docs {
		passages[i] = d.Content
	}

	scored, err := g.reranker.Rerank(ctx, query, passages, len(docs))
	if err != nil {
		g.logger.Warn("RETRIEVE", "Re-ranking failed, keeping similarity order", map[string]interface{}{"error": err.Error()})
		return docs
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	reordered := make([]rag.Document, 0, len(scored))
	for _, s := range scored {
		if s.Index < 0 || s.Index >= len(docs) {
			continue
		}
		doc := docs[s.Index]
		doc.Score = s.Score
		reordered = append(reordered, doc)
	}
	if len(reordered) == 0 {
		return docs
	}
	return reordered
}

func toDocuments(chunks []*contract.ScoredChunk) []rag.Document {
	docs := make([]rag.Document, len(chunks))
	for i, sc := range chunks {
		c := sc.Chunk
		docs[i] = rag.Document{
			ID:                c.Id.String(),
			AnnouncementID:    c.AnnouncementId,
			ChunkIndex:        c.ChunkIndex,
			Content:           c.Content,
			Score:             sc.Similarity,
			Title:             c.Title,
			URL:               c.URL,
			Author:            c.Author,
			Board:             c.Board,
			WrittenAt:         c.WrittenAt,
			TargetDepartments: c.TargetDepartments,
			TargetGrades:      c.TargetGrades,
			Tags:              c.Tags,
		}
	}
	return docs
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
