package entity

import (
	"time"

	"github.com/google/uuid"
)

// AnnouncementChunk is one searchable passage of a source announcement,
// produced by the ingestion pipeline. The answer pipeline treats it as
// read-only.
type AnnouncementChunk struct {
	Id             uuid.UUID
	AnnouncementId int64
	ChunkIndex     int
	Content        string
	Embedding      []float32

	Title     string
	Board     string
	Author    string
	URL       string
	WrittenAt *time.Time

	TargetDepartments []string
	TargetGrades      []int
	Tags              []string

	ApplicationPeriodStart *time.Time
	ApplicationPeriodEnd   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
