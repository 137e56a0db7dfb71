package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"whatsapp-launcher-core/internal/application"
	"whatsapp-launcher-core/internal/application/webhook_handlers"
	"whatsapp-launcher-core/internal/config"
	"whatsapp-launcher-core/internal/infrastructure/api"
	securitymiddleware "whatsapp-launcher-core/internal/infrastructure/middleware"
	"whatsapp-launcher-core/internal/infrastructure/repository"
	shopifyinfra "whatsapp-launcher-core/internal/infrastructure/shopify"
	"whatsapp-launcher-core/internal/ports"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.DevAuthFallback {
		logger.Warn().Msg("DEV_AUTH_FALLBACK is enabled: plain shop parameters are accepted as identity. Never run this in production.")
	}

	ctx := context.Background()

	// Persistence backend
	var (
		repo        ports.Repository
		stateRepo   ports.StateRepository
		mongoClient *mongo.Client
	)
	switch cfg.DBBackend {
	case "mongo":
		mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		mongoRepo, err := repository.NewMongoRepository(ctx, mongoClient.Database(cfg.MongoDatabase))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize MongoDB repository")
		}
		repo, stateRepo = mongoRepo, mongoRepo
	default:
		fileRepo, err := repository.NewFileRepository(cfg.DataDir, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open file store")
		}
		repo, stateRepo = fileRepo, fileRepo
	}

	if cfg.StateBackend == "redis" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		stateRepo = repository.NewRedisStateStore(redisClient)
	}

	// Infrastructure
	sessionVerifier := shopifyinfra.NewSessionVerifier(cfg.APIKey, cfg.APISecret)
	webhookVerifier := shopifyinfra.NewWebhookVerifier(cfg.APISecret)
	shopifyClient := shopifyinfra.NewClient(cfg.APIKey, cfg.APISecret, cfg.AppURL, logger)

	// Application services
	oauthService := application.NewOAuthService(repo, stateRepo, shopifyClient, logger)
	widgetService := application.NewWidgetService(repo, shopifyClient, logger, cfg.AppURL)

	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, repo))

	handlers := api.NewHandlers(
		oauthService,
		widgetService,
		repo,
		webhookVerifier,
		webhookDispatcher,
		logger,
		cfg.APIKey,
		cfg.AppURL,
	)

	sessionAuth := securitymiddleware.SessionAuth(sessionVerifier, repo, cfg.DevAuthFallback, logger)
	router := api.NewRouter(handlers, sessionAuth)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("backend", cfg.DBBackend).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown: stop accepting requests, then flush the store.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
	if err := repo.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Store close failed")
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("MongoDB disconnect failed")
		}
	}
	logger.Info().Msg("Server stopped")
}
