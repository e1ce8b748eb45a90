package bootstrap

import (
	"context"
	"log"
	"os"

	"ai-storycraft-be/internal/config"
	"ai-storycraft-be/internal/controller"
	"ai-storycraft-be/internal/handler"
	"ai-storycraft-be/internal/pkg/logger"
	"ai-storycraft-be/internal/repository/implementation"
	"ai-storycraft-be/internal/repository/memory"
	"ai-storycraft-be/internal/service"
	"ai-storycraft-be/internal/websocket"
	"ai-storycraft-be/pkg/editor"
	"ai-storycraft-be/pkg/generation"
	"ai-storycraft-be/pkg/insertion"
	"ai-storycraft-be/pkg/interview"
	"ai-storycraft-be/pkg/llm/factory"
	"ai-storycraft-be/pkg/panel"
	"ai-storycraft-be/pkg/workflow"

	pktNats "ai-storycraft-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController  controller.IAssistantController
	GenerationController controller.IGenerationController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	domainLogger := log.New(os.Stdout, "", log.LstdFlags)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Collaborator Clients
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	editorClient := editor.NewHTTPClient(cfg.Collaborators.EditorBaseURL)
	renderClient := generation.NewHTTPClient(cfg.Collaborators.RenderBaseURL)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
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

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/progress.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Panel Core
	registry := workflow.NewRegistry()
	machine := interview.NewMachine(registry, llmProvider, domainLogger)

	jobRepo := implementation.NewGenerationJobRepository(db)
	auditSink := service.NewGormAuditSink(jobRepo)
	orchestrator := generation.NewOrchestrator(renderClient, pubSub, auditSink, domainLogger)

	bridge := insertion.NewBridge(editorClient, domainLogger)
	panelController := panel.NewController(machine, orchestrator, editorClient, bridge, domainLogger)

	// In-Memory Session Storage
	sessionRepo := memory.NewPanelSessionRepository()

	// 5. Services
	assistantService := service.NewAssistantService(sessionRepo, panelController, sysLogger)
	generationService := service.NewGenerationService(orchestrator, jobRepo, sysLogger)
	consumerService := service.NewConsumerService(pubSub, wsHub, natsPub)

	// Handler
	progressHandler := handler.NewProgressHandler(wsHub, wsLogger)

	// 6. Controllers
	return &Container{
		AssistantController:  controller.NewAssistantController(assistantService),
		GenerationController: controller.NewGenerationController(generationService),

		ProgressHandler: progressHandler,
		WebSocketHub:    wsHub,

		ConsumerService: consumerService,
	}
}
