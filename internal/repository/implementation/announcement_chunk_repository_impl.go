package implementation

import (
	"context"
	"fmt"

	"announce-qa-be/internal/entity"
	"announce-qa-be/internal/mapper"
	"announce-qa-be/internal/model"
	"announce-qa-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type AnnouncementChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AnnouncementChunkMapper
}

func NewAnnouncementChunkRepository(db *gorm.DB) contract.AnnouncementChunkRepository {
	return &AnnouncementChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewAnnouncementChunkMapper(),
	}
}

// SearchSimilarWithScore runs cosine similarity search over the pgvector
// column. Similarity = 1 - cosine distance; results come back most similar
// first. The stored vectors are returned too so callers can run MMR locally.
func (r *AnnouncementChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)

	type chunkWithScore struct {
		model.AnnouncementChunk
		Similarity float64
	}

	var rows []chunkWithScore
	err := r.db.WithContext(ctx).
		Model(&model.AnnouncementChunk{}).
		Select("announcement_chunks.*, 1 - (embedding_value <=> ?) AS similarity", vec).
		Order(gorm.Expr("embedding_value <=> ?", vec)).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]*contract.ScoredChunk, len(rows))
	for i := range rows {
		results[i] = &contract.ScoredChunk{
			Chunk:      r.mapper.ToEntity(&rows[i].AnnouncementChunk),
			Similarity: rows[i].Similarity,
		}
	}
	return results, nil
}

// ReplaceForAnnouncement swaps out every stored chunk of an announcement in
// one transaction, so re-ingesting never leaves stale passages behind.
func (r *AnnouncementChunkRepositoryImpl) ReplaceForAnnouncement(ctx context.Context, announcementId int64, chunks []*entity.AnnouncementChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("announcement_id = ?", announcementId).Delete(&model.AnnouncementChunk{}).Error; err != nil {
			return fmt.Errorf("delete stale chunks: %w", err)
		}
		for _, c := range chunks {
			m := r.mapper.ToModel(c)
			if err := tx.Create(m).Error; err != nil {
				return fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
			}
		}
		return nil
	})
}

func (r *AnnouncementChunkRepositoryImpl) CountForAnnouncement(ctx context.Context, announcementId int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AnnouncementChunk{}).
		Where("announcement_id = ?", announcementId).
		Count(&count).Error
	return count, err
}
