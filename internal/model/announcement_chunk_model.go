package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type AnnouncementChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AnnouncementId int64           `gorm:"index;not null"`
	ChunkIndex     int             `gorm:"not null"`
	Content        string          `gorm:"type:text;not null"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(1536)"`

	Title     string `gorm:"type:text"`
	Board     string `gorm:"type:text"`
	Author    string `gorm:"type:text"`
	Url       string `gorm:"type:text"`
	WrittenAt *time.Time

	TargetDepartments datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	TargetGrades      datatypes.JSONSlice[int]    `gorm:"type:jsonb"`
	Tags              datatypes.JSONSlice[string] `gorm:"type:jsonb"`

	ApplicationPeriodStart *time.Time
	ApplicationPeriodEnd   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AnnouncementChunk) TableName() string {
	return "announcement_chunks"
}
