package service

import (
	"context"
	"fmt"

	"announce-qa-be/internal/dto"
	"announce-qa-be/internal/pkg/logger"
	"announce-qa-be/pkg/llm"
	"announce-qa-be/pkg/rag"
	"announce-qa-be/pkg/rag/history"
	"announce-qa-be/pkg/rag/pipeline"

	"github.com/google/uuid"
)

// maxSources caps how many source announcements are attached to an answer.
const maxSources = 15

// IChatService answers announcement questions over the retrieval pipeline.
type IChatService interface {
	Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error)
	GetHistory(ctx context.Context, conversationId string) (*dto.HistoryResponse, error)
	ClearHistory(ctx context.Context, conversationId string) error
}

type chatService struct {
	pipeline     *pipeline.Pipeline
	historyStore history.Store
	logger       logger.ILogger
}

func NewChatService(p *pipeline.Pipeline, store history.Store, log logger.ILogger) IChatService {
	return &chatService{
		pipeline:     p,
		historyStore: store,
		logger:       log,
	}
}

// Ask runs one conversation turn. Blocked turns return the fixed refusal
// with no sources and are not written to history.
func (cs *chatService) Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error) {
	conversationId := request.ConversationId
	if conversationId == "" {
		conversationId = uuid.NewString()
	}

	msgs, err := cs.historyStore.Load(ctx, conversationId)
	if err != nil {
		cs.logger.Warn("CHAT", "Failed to load history, starting fresh", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
		msgs = nil
	}

	result, err := cs.pipeline.Run(ctx, request.Question, msgs)
	if err != nil {
		return nil, fmt.Errorf("answer turn: %w", err)
	}

	if result.Blocked {
		return &dto.AskResponse{
			Answer:         result.Answer,
			Blocked:        true,
			ConversationId: conversationId,
			Sources:        []dto.SourceResponse{},
		}, nil
	}

	if err := cs.historyStore.Append(ctx, conversationId,
		llm.Message{Role: "user", Content: request.Question},
		llm.Message{Role: "assistant", Content: result.Answer},
	); err != nil {
		cs.logger.Warn("CHAT", "Failed to persist history", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
	}

	return &dto.AskResponse{
		Answer:         result.Answer,
		Blocked:        false,
		ConversationId: conversationId,
		Attempts:       result.Attempts,
		Sources:        buildSources(result.Documents),
	}, nil
}

func (cs *chatService) GetHistory(ctx context.Context, conversationId string) (*dto.HistoryResponse, error) {
	msgs, err := cs.historyStore.Load(ctx, conversationId)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	resp := &dto.HistoryResponse{
		ConversationId: conversationId,
		Messages:       make([]dto.HistoryMessageResponse, 0, len(msgs)),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, dto.HistoryMessageResponse{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return resp, nil
}

func (cs *chatService) ClearHistory(ctx context.Context, conversationId string) error {
	return cs.historyStore.Clear(ctx, conversationId)
}

// buildSources reduces chunk-level documents to announcement-level source
// entries, deduplicated by (url, title) in retrieval order.
func buildSources(docs []rag.Document) []dto.SourceResponse {
	sources := make([]dto.SourceResponse, 0, maxSources)
	seen := make(map[string]bool)

	for _, doc := range docs {
		key := doc.URL + "\x00" + doc.Title
		if seen[key] {
			continue
		}
		seen[key] = true

		src := dto.SourceResponse{
			Id:     doc.AnnouncementID,
			Title:  doc.Title,
			URL:    doc.URL,
			Board:  doc.Board,
			Author: doc.Author,
		}
		if doc.WrittenAt != nil {
			src.WrittenAt = doc.WrittenAt.Format("2006-01-02")
		}
		sources = append(sources, src)
		if len(sources) >= maxSources {
			break
		}
	}
	return sources
}
