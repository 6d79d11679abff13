package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/companion-labs/companion-api/docs" // Swagger docs (generated)
	"github.com/companion-labs/companion-api/internal/auth"
	"github.com/companion-labs/companion-api/internal/bot"
	"github.com/companion-labs/companion-api/internal/chat"
	"github.com/companion-labs/companion-api/internal/config"
	"github.com/companion-labs/companion-api/internal/database"
	"github.com/companion-labs/companion-api/internal/email"
	httpServer "github.com/companion-labs/companion-api/internal/http"
	"github.com/companion-labs/companion-api/internal/llm"
	"github.com/companion-labs/companion-api/internal/logging"
	"github.com/companion-labs/companion-api/internal/ratelimit"
	"github.com/companion-labs/companion-api/internal/user"
)

// @title           AI Companion API
// @version         1.0
// @description     Backend for the AI Companion product: signup/login with email OTP verification, bot persona management, and chat relay to a text-generation API.

// @host      localhost:8000
// @BasePath  /

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := database.Open(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.CreateSchema(context.Background(), db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	botRepo := bot.NewRepository(db)
	chatRepo := chat.NewRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize external collaborators
	emailService := email.NewService(cfg.Email)
	generator := llm.NewGeminiClient(cfg.LLM, logger)

	// Initialize services
	authService := auth.NewService(userRepo, emailService, logger)
	botService := bot.NewService(botRepo, logger)
	chatService := chat.NewService(chatRepo, botRepo, generator, logger)

	// Initialize HTTP handlers
	authHandler := auth.NewHandler(authService, rateLimiter)
	botHandler := bot.NewHandler(botService)
	chatHandler := chat.NewHandler(chatService)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, botHandler, chatHandler, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
