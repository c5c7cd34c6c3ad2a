package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"announce-qa-be/internal/entity"
	"announce-qa-be/internal/pkg/logger"
	"announce-qa-be/internal/repository/contract"
	"announce-qa-be/pkg/embedding"
	"announce-qa-be/pkg/utils"

	"github.com/google/uuid"
)

// Announcement is the raw crawled payload handed to ingestion.
type Announcement struct {
	ID     int64
	Title  string
	Board  string
	Author string
	URL    string
	HTML   string

	WrittenAt *time.Time

	TargetDepartments []string
	TargetGrades      []int
	Tags              []string

	ApplicationPeriodStart *time.Time
	ApplicationPeriodEnd   *time.Time
}

// Config controls chunking and embedding parallelism.
type Config struct {
	ChunkSize        int
	ChunkOverlap     int
	EmbedConcurrency int
}

// Ingestor turns a crawled announcement into embedded chunks in the
// vector index. Re-ingesting the same announcement replaces its chunks.
type Ingestor struct {
	embedder embedding.EmbeddingProvider
	repo     contract.AnnouncementChunkRepository
	ocr      *OCRRunner
	cfg      Config
	logger   logger.ILogger
}

func NewIngestor(
	embedder embedding.EmbeddingProvider,
	repo contract.AnnouncementChunkRepository,
	ocr *OCRRunner,
	cfg Config,
	log logger.ILogger,
) *Ingestor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1024
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 8
	}
	if cfg.EmbedConcurrency < 1 {
		cfg.EmbedConcurrency = 1
	}
	return &Ingestor{
		embedder: embedder,
		repo:     repo,
		ocr:      ocr,
		cfg:      cfg,
		logger:   log,
	}
}

// Ingest cleans, OCRs, chunks and embeds one announcement, then swaps
// the stored chunks atomically. OCR failures degrade to text-only
// ingestion; embedding failures abort the whole announcement.
func (in *Ingestor) Ingest(ctx context.Context, ann Announcement) error {
	text, err := ExtractText(ann.HTML)
	if err != nil {
		return fmt.Errorf("clean announcement %d: %w", ann.ID, err)
	}

	images, err := ImageSources(ann.HTML)
	if err != nil {
		return fmt.Errorf("collect image sources for announcement %d: %w", ann.ID, err)
	}

	if len(images) > 0 && in.ocr != nil {
		results := in.ocr.Run(ctx, images)
		ocrTexts := SuccessfulTexts(results)
		in.logger.Info("INGEST", "OCR pass finished", map[string]interface{}{
			"announcement_id": ann.ID,
			"images":          len(images),
			"recovered":       len(ocrTexts),
		})
		if len(ocrTexts) > 0 {
			text = text + "\n\n[이미지 텍스트]\n" + strings.Join(ocrTexts, "\n\n")
		}
	}

	chunks := utils.SplitText(text, in.cfg.ChunkSize, in.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		in.logger.Warn("INGEST", "Announcement produced no chunks", map[string]interface{}{
			"announcement_id": ann.ID,
		})
		return in.repo.ReplaceForAnnouncement(ctx, ann.ID, nil)
	}

	entities, err := in.embedChunks(ctx, ann, chunks)
	if err != nil {
		return err
	}

	if err := in.repo.ReplaceForAnnouncement(ctx, ann.ID, entities); err != nil {
		return fmt.Errorf("store chunks for announcement %d: %w", ann.ID, err)
	}

	in.logger.Info("INGEST", "Announcement ingested", map[string]interface{}{
		"announcement_id": ann.ID,
		"title":           ann.Title,
		"chunks":          len(entities),
	})
	return nil
}

func (in *Ingestor) embedChunks(ctx context.Context, ann Announcement, chunks []string) ([]*entity.AnnouncementChunk, error) {
	entities := make([]*entity.AnnouncementChunk, len(chunks))
	errs := make([]error, len(chunks))

	sem := make(chan struct{}, in.cfg.EmbedConcurrency)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		go func(idx int, content string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := in.embedder.Generate(ctx, content, embedding.TaskRetrievalDocument)
			if err != nil {
				errs[idx] = fmt.Errorf("embed chunk %d: %w", idx, err)
				return
			}

			now := time.Now()
			entities[idx] = &entity.AnnouncementChunk{
				Id:             uuid.New(),
				AnnouncementId: ann.ID,
				ChunkIndex:     idx,
				Content:        content,
				Embedding:      res.Values,

				Title:     ann.Title,
				Board:     ann.Board,
				Author:    ann.Author,
				URL:       ann.URL,
				WrittenAt: ann.WrittenAt,

				TargetDepartments: ann.TargetDepartments,
				TargetGrades:      ann.TargetGrades,
				Tags:              ann.Tags,

				ApplicationPeriodStart: ann.ApplicationPeriodStart,
				ApplicationPeriodEnd:   ann.ApplicationPeriodEnd,

				CreatedAt: now,
				UpdatedAt: now,
			}
		}(i, chunk)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("announcement %d: %w", ann.ID, err)
		}
	}
	return entities, nil
}
