package mapper

import (
	"announce-qa-be/internal/entity"
	"announce-qa-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type AnnouncementChunkMapper struct{}

func NewAnnouncementChunkMapper() *AnnouncementChunkMapper {
	return &AnnouncementChunkMapper{}
}

func (m *AnnouncementChunkMapper) ToModel(e *entity.AnnouncementChunk) *model.AnnouncementChunk {
	return &model.AnnouncementChunk{
		Id:                     e.Id,
		AnnouncementId:         e.AnnouncementId,
		ChunkIndex:             e.ChunkIndex,
		Content:                e.Content,
		EmbeddingValue:         pgvector.NewVector(e.Embedding),
		Title:                  e.Title,
		Board:                  e.Board,
		Author:                 e.Author,
		Url:                    e.URL,
		WrittenAt:              e.WrittenAt,
		TargetDepartments:      e.TargetDepartments,
		TargetGrades:           e.TargetGrades,
		Tags:                   e.Tags,
		ApplicationPeriodStart: e.ApplicationPeriodStart,
		ApplicationPeriodEnd:   e.ApplicationPeriodEnd,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func (m *AnnouncementChunkMapper) ToEntity(md *model.AnnouncementChunk) *entity.AnnouncementChunk {
	return &entity.AnnouncementChunk{
		Id:                     md.Id,
		AnnouncementId:         md.AnnouncementId,
		ChunkIndex:             md.ChunkIndex,
		Content:                md.Content,
		Embedding:              md.EmbeddingValue.Slice(),
		Title:                  md.Title,
		Board:                  md.Board,
		Author:                 md.Author,
		URL:                    md.Url,
		WrittenAt:              md.WrittenAt,
		TargetDepartments:      md.TargetDepartments,
		TargetGrades:           md.TargetGrades,
		Tags:                   md.Tags,
		ApplicationPeriodStart: md.ApplicationPeriodStart,
		ApplicationPeriodEnd:   md.ApplicationPeriodEnd,
		CreatedAt:              md.CreatedAt,
		UpdatedAt:              md.UpdatedAt,
	}
}
