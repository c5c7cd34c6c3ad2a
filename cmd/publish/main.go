package main

// Feeds crawled announcements into the ingestion stream by hand. Reads a
// JSON array of crawled-announcement payloads and publishes each one to
// NATS, where the REST worker's ingest bridge picks them up.

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"announce-qa-be/internal/config"
	"announce-qa-be/internal/dto"
	"announce-qa-be/pkg/events"
	pktNats "announce-qa-be/pkg/nats"
)

func main() {
	filePath := flag.String("file", "", "path to a JSON array of crawled announcements")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("Usage: publish -file announcements.json")
	}

	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		log.Fatal("Error: NATS_URL is not set")
	}

	raw, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("Error: failed to read %s: %v", *filePath, err)
	}

	var messages []dto.AnnouncementCrawledMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		log.Fatalf("Error: failed to parse %s: %v", *filePath, err)
	}

	publisher, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Error: failed to connect to NATS: %v", err)
	}
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Fatalf("Error: failed to marshal announcement %d: %v", msg.AnnouncementId, err)
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Fatalf("Error: failed to build payload for announcement %d: %v", msg.AnnouncementId, err)
		}

		event := events.BaseEvent{
			Type:       "ANNOUNCEMENT_CRAWLED",
			Data:       payload,
			OccurredAt: time.Now(),
		}
		if err := publisher.Publish(ctx, event); err != nil {
			log.Fatalf("Error: failed to publish announcement %d: %v", msg.AnnouncementId, err)
		}
		log.Printf("Published announcement %d (%s)", msg.AnnouncementId, msg.Title)
	}

	log.Printf("Done: %d announcements published", len(messages))
}
