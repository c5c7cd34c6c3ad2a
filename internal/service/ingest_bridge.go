package service

import (
	"context"
	"encoding/json"
	"fmt"

	"announce-qa-be/internal/pkg/logger"
	"announce-qa-be/pkg/events"
	natsbus "announce-qa-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const crawledSubject = "announcements.ANNOUNCEMENT_CRAWLED"

// IngestBridge forwards crawled-announcement events from the NATS bus
// onto the local ingestion topic, so the worker consumes one stream
// regardless of where the message originated.
type IngestBridge struct {
	subscriber *natsbus.Subscriber
	pubSub     *gochannel.GoChannel
	topicName  string
	logger     logger.ILogger
}

func NewIngestBridge(
	subscriber *natsbus.Subscriber,
	pubSub *gochannel.GoChannel,
	topicName string,
	log logger.ILogger,
) *IngestBridge {
	return &IngestBridge{
		subscriber: subscriber,
		pubSub:     pubSub,
		topicName:  topicName,
		logger:     log,
	}
}

// Start attaches a durable consumer for crawled announcements.
func (b *IngestBridge) Start() error {
	return b.subscriber.Subscribe(crawledSubject, "ingest-worker", func(ctx context.Context, event events.Event) error {
		payload, err := json.Marshal(event.Payload())
		if err != nil {
			return fmt.Errorf("marshal crawled payload: %w", err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		if err := b.pubSub.Publish(b.topicName, msg); err != nil {
			return fmt.Errorf("forward to ingestion topic: %w", err)
		}

		b.logger.Debug("BRIDGE", "Forwarded crawled announcement", map[string]interface{}{
			"subject": event.EventType(),
		})
		return nil
	})
}
