package bootstrap

import (
	"context"
	"log"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/controller"
	"ai-tutor-be/internal/handler"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/implementation"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/internal/service"
	"ai-tutor-be/internal/websocket"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/llm/factory"
	pkgNats "ai-tutor-be/pkg/nats"
	"ai-tutor-be/pkg/rag"
	"ai-tutor-be/pkg/rag/answer"
	"ai-tutor-be/pkg/rag/question"
	"ai-tutor-be/pkg/stream"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	DocumentController controller.IDocumentController
	RagController      controller.IRagController
	QuestionController controller.IQuestionController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub *websocket.Hub
	WsHandler    *handler.WsHandler

	// Infrastructure handles exposed for shutdown
	NatsPublisher  *pkgNats.Publisher
	NatsSubscriber *pkgNats.Subscriber
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := logger.NewIsolatedLogger(cfg.App.RagLogFilePath)

	// 2. Event bus (in-process worker queue)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub for lifecycle notices
	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run()

	// 5. Pipeline state and stream plumbing
	stateRepo := memory.NewStateRepository()
	registry := stream.NewRegistry()
	chunkRepo := implementation.NewDocumentChunkRepository(db)

	ragCfg := rag.Config{
		MaxIterations:        cfg.Rag.MaxIterations,
		MaxRetrievalAttempts: cfg.Rag.MaxRetrievalAttempts,
		RelevanceThreshold:   cfg.Rag.RelevanceThreshold,
		MinRelevantDocuments: cfg.Rag.MinRelevantDocuments,
		TopK:                 cfg.Rag.TopK,
		EnableRewrite:        cfg.Rag.EnableRewrite,
		EnableVerification:   cfg.Rag.EnableVerification,
		CapabilityTimeout:    cfg.Rag.CapabilityTimeout,
	}

	answerGenerator := answer.NewGenerator(llmProvider, ragLogger)
	questionGenerator := question.NewGenerator(llmProvider, ragLogger)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.EmbedDocsTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedDocsTopic,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, cfg.App.JwtSecret, natsPub, sysLogger)

	documentService := service.NewDocumentService(uowFactory, publisherService, natsPub, sysLogger)

	ragService := service.NewRagService(
		uowFactory,
		stateRepo,
		registry,
		chunkRepo,
		embeddingProvider,
		answerGenerator,
		natsPub,
		ragCfg,
		cfg.Rag.KeepAliveInterval,
		ragLogger,
	)

	questionService := service.NewQuestionService(
		uowFactory,
		stateRepo,
		registry,
		chunkRepo,
		embeddingProvider,
		questionGenerator,
		ragCfg,
		cfg.Rag.KeepAliveInterval,
		ragLogger,
	)

	// 7. Session lifecycle fan-out: NATS -> websocket hub
	if natsSub != nil {
		startNoticeForwarder(natsSub, wsHub, sysLogger)
	}

	return &Container{
		AuthController:     controller.NewAuthController(authService),
		DocumentController: controller.NewDocumentController(documentService),
		RagController:      controller.NewRagController(ragService, sysLogger),
		QuestionController: controller.NewQuestionController(questionService),

		ConsumerService: consumerService,

		WebSocketHub: wsHub,
		WsHandler:    handler.NewWsHandler(wsHub, sysLogger),

		NatsPublisher:  natsPub,
		NatsSubscriber: natsSub,
	}
}
