package bootstrap

import (
	"context"
	"fmt"

	"screening-bot-be/internal/config"
	"screening-bot-be/internal/controller"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/internal/pkg/serverutils"
	"screening-bot-be/internal/repository/contract"
	"screening-bot-be/internal/repository/implementation"
	"screening-bot-be/internal/repository/memory"
	"screening-bot-be/internal/repository/mongodb"
	"screening-bot-be/internal/repository/redisstore"
	"screening-bot-be/internal/service"
	"screening-bot-be/pkg/database"
	"screening-bot-be/pkg/embedding"
	"screening-bot-be/pkg/embedding/jina"
	"screening-bot-be/pkg/llm/factory"
	pktNats "screening-bot-be/pkg/nats"
	"screening-bot-be/pkg/questionnaire"
	"screening-bot-be/pkg/render"
	"screening-bot-be/pkg/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
)

type Container struct {
	// Controllers
	QuestionnaireController controller.IQuestionnaireController
	ChatController          controller.IChatController
	GetterController        controller.IGetterController
	ReviewController        controller.IReviewController
	JwtMiddleware           fiber.Handler

	// Services exposed for the entrypoints
	QuestionnaireService service.IQuestionnaireService
	ConsumerService      service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// Repositories groups the storage backends picked by DB_DRIVER.
type Repositories struct {
	Questionnaires contract.QuestionnaireRepository
	ChatRecords    contract.ChatRecordRepository
	close          func()
}

// NewRepositories opens the configured document store. "memory" keeps
// everything in process and is meant for local runs and tests.
func NewRepositories(ctx context.Context, cfg config.DatabaseConfig) (*Repositories, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Connection)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to postgres: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		return &Repositories{
			Questionnaires: implementation.NewQuestionnaireRepository(db),
			ChatRecords:    implementation.NewChatRecordRepository(db),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			},
		}, nil
	case "mongo":
		db, err := database.NewMongoDatabase(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to mongo: %w", err)
		}
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}
		return &Repositories{
			Questionnaires: mongodb.NewQuestionnaireRepository(db),
			ChatRecords:    mongodb.NewChatRecordRepository(db),
			close: func() {
				db.Client().Disconnect(context.Background())
			},
		}, nil
	case "memory":
		return &Repositories{
			Questionnaires: memory.NewQuestionnaireRepository(),
			ChatRecords:    memory.NewChatRecordRepository(),
			close:          func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
}

func (r *Repositories) Close() {
	if r.close != nil {
		r.close()
	}
}

// NewEmbeddingProvider picks the embedding backend. Questions and user messages
// must be embedded by the same provider, so this is used by both the server and
// the seeder.
func NewEmbeddingProvider(cfg *config.Config) embedding.EmbeddingProvider {
	switch cfg.Ai.EmbeddingProvider {
	case "jina":
		return jina.NewJinaProvider(cfg.Keys.Jina)
	case "gemini":
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	default:
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	}
}

func newSessionRepository(ctx context.Context, cfg *config.Config) (session.Repository, func(), error) {
	if cfg.Session.Store != "redis" {
		return memory.NewSessionRepository(cfg.Session.TTL, cfg.Session.CleanupInterval), func() {}, nil
	}

	client, err := redisstore.NewClient(ctx, cfg.App.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return redisstore.NewSessionRepository(client, cfg.Session.TTL), func() { client.Close() }, nil
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// 1. Logging
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	renderLogger := logger.NewIsolatedLogger(cfg.App.RenderLogFilePath)

	c := &Container{Logger: sysLogger}

	// 2. Storage
	repos, err := NewRepositories(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, repos.Close)

	sessionRepo, closeSessions, err := newSessionRepository(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.closers = append(c.closers, closeSessions)
	sessions := session.NewManager(sessionRepo, sysLogger)

	// 3. Models
	embeddingProvider := NewEmbeddingProvider(cfg)
	sysLogger.Info("Bootstrap", "Embedding provider selected", map[string]interface{}{
		"provider": cfg.Ai.EmbeddingProvider,
	})

	specs, err := render.ParseModelSpecs(cfg.Ai.Models)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("invalid LLM_MODELS: %w", err)
	}
	registry, err := render.BuildRegistry(specs, factory.Endpoints{
		OllamaBaseURL:      cfg.Ai.OllamaBaseURL,
		HuggingFaceBaseURL: cfg.Ai.HuggingFaceBaseURL,
		HuggingFaceToken:   cfg.Keys.HuggingFace,
		GeminiAPIKey:       cfg.Keys.GoogleGemini,
	}, render.Settings{
		Timeout:     cfg.Ai.RenderTimeout,
		MaxTokens:   cfg.Ai.MaxTokens,
		Temperature: cfg.Ai.Temperature,
	}, renderLogger)
	if err != nil {
		c.Close()
		return nil, err
	}
	if _, err := registry.Lookup(cfg.Ai.DefaultModel); err != nil {
		c.Close()
		return nil, fmt.Errorf("LLM_DEFAULT_MODEL %q is not in LLM_MODELS", cfg.Ai.DefaultModel)
	}
	sysLogger.Info("Bootstrap", "Models registered", map[string]interface{}{
		"models": registry.Names(),
	})

	// 4. Event bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { pubSub.Close() })

	var relay service.EventRelay
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS, events stay in process", map[string]interface{}{
				"error": err,
			})
		} else {
			relay = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	publisherService := service.NewPublisherService(cfg.App.EventTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.EventTopic, relay, sysLogger)

	// 5. Services
	queryEmbedder := embedding.NewEmbedder(embeddingProvider, embedding.TaskTypeRetrievalQuery)
	documentEmbedder := embedding.NewEmbedder(embeddingProvider, embedding.TaskTypeRetrievalDocument)

	questionnaireService := service.NewQuestionnaireService(repos.Questionnaires, repos.ChatRecords, sessions, documentEmbedder, publisherService, sysLogger)
	chatService := service.NewChatService(
		sessions,
		questionnaireService,
		repos.ChatRecords,
		questionnaire.NewSelector(queryEmbedder),
		registry,
		publisherService,
		cfg.Ai.DefaultModel,
		sysLogger,
	)
	reviewService := service.NewReviewService(repos.ChatRecords, publisherService, sysLogger)
	c.QuestionnaireService = questionnaireService

	// 6. Controllers
	c.QuestionnaireController = controller.NewQuestionnaireController(questionnaireService)
	c.ChatController = controller.NewChatController(chatService, sysLogger)
	c.GetterController = controller.NewGetterController(questionnaireService, chatService, reviewService)
	c.ReviewController = controller.NewReviewController(reviewService, questionnaireService)
	c.JwtMiddleware = serverutils.NewJwtMiddleware(cfg.App.JwtSecret)

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	c.Logger.Sync()
}
