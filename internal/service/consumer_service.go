package service

import (
	"context"
	"encoding/json"

	"announce-qa-be/internal/dto"
	"announce-qa-be/internal/pkg/logger"
	"announce-qa-be/pkg/ingest"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IConsumerService drains the ingestion topic.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	ingestor  *ingest.Ingestor
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	ingestor *ingest.Ingestor,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		ingestor:  ingestor,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.AnnouncementCrawledMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("CONSUMER", "Processing crawled announcement", map[string]interface{}{
		"announcement_id": payload.AnnouncementId,
		"title":           payload.Title,
	})

	err := cs.ingestor.Ingest(ctx, ingest.Announcement{
		ID:     payload.AnnouncementId,
		Title:  payload.Title,
		Board:  payload.Board,
		Author: payload.Author,
		URL:    payload.URL,
		HTML:   payload.HTML,

		WrittenAt: payload.WrittenAt,

		TargetDepartments: payload.TargetDepartments,
		TargetGrades:      payload.TargetGrades,
		Tags:              payload.Tags,

		ApplicationPeriodStart: payload.ApplicationPeriodStart,
		ApplicationPeriodEnd:   payload.ApplicationPeriodEnd,
	})
	if err != nil {
		cs.logger.Error("CONSUMER", "Ingestion failed", map[string]interface{}{
			"announcement_id": payload.AnnouncementId,
			"error":           err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	msg.Ack()
}
