package contract

import (
	"context"

	"announce-qa-be/internal/entity"
)

// ScoredChunk pairs a chunk with its cosine similarity to the query vector.
type ScoredChunk struct {
	Chunk      *entity.AnnouncementChunk
	Similarity float64
}

// AnnouncementChunkRepository is the vector index boundary. Search calls are
// read-only; ReplaceForAnnouncement is used by ingestion only.
type AnnouncementChunkRepository interface {
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*ScoredChunk, error)
	ReplaceForAnnouncement(ctx context.Context, announcementId int64, chunks []*entity.AnnouncementChunk) error
	CountForAnnouncement(ctx context.Context, announcementId int64) (int64, error)
}
