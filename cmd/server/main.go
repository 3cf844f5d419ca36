package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storybranch-server/internal/auth"
	"storybranch-server/internal/config"
	"storybranch-server/internal/handler"
	"storybranch-server/internal/history"
	"storybranch-server/internal/logger"
	"storybranch-server/internal/messaging"
	"storybranch-server/internal/middleware"
	"storybranch-server/internal/repository"
	"storybranch-server/internal/service"
	"storybranch-server/migrations"
	"storybranch-server/pkg/database"
	"storybranch-server/pkg/migration"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.GetDSN(), appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   migrations.FS,
	}, pool)
	if err := migrator.Up(); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	sessions := history.NewRedisSessionStore(redisClient, cfg.HistoryTTL, appLogger)

	var publisher messaging.StoryEventPublisher
	if cfg.RabbitMQURL != "" {
		publisher, err = messaging.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.StoryEventQueue, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize event publisher", zap.Error(err))
		}
		defer publisher.Close()

		pruner, err := messaging.NewHistoryPruner(cfg.RabbitMQURL, cfg.StoryEventQueue, sessions, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize history pruner", zap.Error(err))
		}
		defer pruner.Close()
		go func() {
			if err := pruner.StartConsuming(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLogger.Error("History pruner stopped", zap.Error(err))
			}
		}()
	} else {
		appLogger.Warn("RABBITMQ_URL is empty, story event publishing disabled")
	}

	storyRepo := repository.NewPgStoryRepository(appLogger)
	pageRepo := repository.NewPgPageRepository(appLogger)
	choiceRepo := repository.NewPgChoiceRepository(appLogger)
	memberRepo := repository.NewPgStoryMemberRepository(appLogger)
	userRepo := repository.NewPgUserRepository(appLogger)

	graphService := service.NewStoryGraphService(
		pool, storyRepo, pageRepo, choiceRepo, memberRepo, userRepo, publisher, appLogger)

	verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize token verifier", zap.Error(err))
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ZapLoggingMiddleware(appLogger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.GetAllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Reader-Session"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	prom := ginprometheus.NewPrometheus("storybranch")
	prom.Use(router)

	h := handler.NewHandler(graphService, sessions, verifier.VerifyToken, appLogger)
	h.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
