package bootstrap

import (
	"log"
	"time"

	"announce-qa-be/internal/config"
	"announce-qa-be/internal/controller"
	"announce-qa-be/internal/pkg/logger"
	"announce-qa-be/internal/repository/implementation"
	"announce-qa-be/internal/service"
	"announce-qa-be/pkg/embedding"
	"announce-qa-be/pkg/ingest"
	llmopenai "announce-qa-be/pkg/llm/openai"
	"announce-qa-be/pkg/rag/generate"
	"announce-qa-be/pkg/rag/guard"
	"announce-qa-be/pkg/rag/history"
	"announce-qa-be/pkg/rag/pipeline"
	"announce-qa-be/pkg/rag/rewrite"
	"announce-qa-be/pkg/rag/search"
	"announce-qa-be/pkg/rag/validate"
	"announce-qa-be/pkg/rerank"

	pktNats "announce-qa-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Shared for CLI entrypoints
	ChatService  service.IChatService
	Pipeline     *pipeline.Pipeline
	HistoryStore history.Store
	Logger       logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	chunkRepo := implementation.NewAnnouncementChunkRepository(db)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider := embedding.NewOpenAIProvider(
		cfg.Keys.OpenAI,
		cfg.Ai.EmbedModel,
		30*time.Second,
	)

	chatProvider := llmopenai.NewOpenAIProvider(
		cfg.Keys.OpenAI,
		cfg.Ai.ChatModel,
		cfg.Ai.OpenAIBaseURL,
		time.Duration(cfg.Ai.LLMTimeoutSec)*time.Second,
	)
	smallProvider := llmopenai.NewOpenAIProvider(
		cfg.Keys.OpenAI,
		cfg.Ai.SmallModel,
		cfg.Ai.OpenAIBaseURL,
		time.Duration(cfg.Ai.SmallLLMTimeoutSec)*time.Second,
	)
	log.Printf("[INFO] Using chat model %s, small model %s", cfg.Ai.ChatModel, cfg.Ai.SmallModel)

	var reranker rerank.Reranker
	if cfg.Retrieval.RerankEnabled && cfg.Keys.Jina != "" {
		reranker = rerank.NewJinaReranker(cfg.Keys.Jina, cfg.Retrieval.RerankModel, 15*time.Second)
		log.Printf("[INFO] Re-ranking enabled (%s)", cfg.Retrieval.RerankModel)
	}

	// 4. Retrieval + Pipeline
	gateway := search.NewGateway(embeddingProvider, chunkRepo, reranker, search.Config{
		FetchK:     cfg.Retrieval.FetchK,
		MMREnabled: cfg.Retrieval.MMREnabled,
		MMRLambda:  cfg.Retrieval.MMRLambda,
	}, sysLogger)

	smallTimeout := time.Duration(cfg.Ai.SmallLLMTimeoutSec) * time.Second
	chatTimeout := time.Duration(cfg.Ai.LLMTimeoutSec) * time.Second

	ragPipeline := pipeline.New(
		guard.NewGuard(smallProvider, sysLogger, smallTimeout),
		rewrite.NewRewriter(smallProvider, sysLogger, smallTimeout),
		gateway,
		generate.NewGenerator(chatProvider, sysLogger, chatTimeout),
		validate.NewValidator(smallProvider, sysLogger, smallTimeout),
		pipeline.Config{
			MaxAttempts: cfg.Pipeline.MaxAttempts,
			BaseK:       cfg.Retrieval.BaseK,
			KStep:       cfg.Retrieval.KStep,
			KMax:        cfg.Retrieval.KMax,
		},
		sysLogger,
	)

	// 5. Conversation History
	var historyStore history.Store
	if cfg.App.RedisURL != "" {
		redisStore, err := history.NewRedisStore(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to Redis, falling back to in-memory history: %v", err)
			historyStore = history.NewMemoryStore()
		} else {
			historyStore = redisStore
		}
	} else {
		historyStore = history.NewMemoryStore()
	}

	// 6. Ingestion Worker
	var ocrRunner *ingest.OCRRunner
	if cfg.Keys.GoogleGemini != "" {
		ocrProvider := ingest.NewGeminiOCRProvider(
			cfg.Keys.GoogleGemini,
			"",
			time.Duration(cfg.Ingest.OCRTimeoutSec)*time.Second,
		)
		ocrRunner = ingest.NewOCRRunner(
			ocrProvider,
			sysLogger,
			cfg.Ingest.OCRConcurrency,
			time.Duration(cfg.Ingest.OCRTimeoutSec)*time.Second,
		)
	} else {
		log.Println("[WARN] GOOGLE_GEMINI_API_KEY not set, image OCR disabled")
	}

	ingestor := ingest.NewIngestor(embeddingProvider, chunkRepo, ocrRunner, ingest.Config{
		ChunkSize:        cfg.Ingest.ChunkSize,
		ChunkOverlap:     cfg.Ingest.ChunkOverlap,
		EmbedConcurrency: cfg.Ingest.EmbedConcurrency,
	}, sysLogger)

	consumerService := service.NewConsumerService(pubSub, cfg.Ingest.Topic, ingestor, sysLogger)

	// NATS bridge: external crawlers publish over JetStream
	if cfg.App.NatsURL != "" {
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			bridge := service.NewIngestBridge(natsSub, pubSub, cfg.Ingest.Topic, sysLogger)
			if err := bridge.Start(); err != nil {
				log.Printf("[WARN] Failed to start ingest bridge: %v", err)
			}
		}
	}

	// 7. Services + Controllers
	chatService := service.NewChatService(ragPipeline, historyStore, sysLogger)

	return &Container{
		ChatController:  controller.NewChatController(chatService),
		ConsumerService: consumerService,

		ChatService:  chatService,
		Pipeline:     ragPipeline,
		HistoryStore: historyStore,
		Logger:       sysLogger,
	}
}
