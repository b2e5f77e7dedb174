package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"archive-backend/internal/config"
	"archive-backend/internal/database"
	"archive-backend/internal/events"
	"archive-backend/internal/handlers"
	"archive-backend/internal/repository"
	"archive-backend/internal/services"
	"archive-backend/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Connect to database
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}

	objects, err := storage.NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create object store")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	imageRepo := repository.NewImageRepository(db)

	// Initialize services
	wsHub := services.NewWSHub()

	var publisher services.EventPublisher = wsHub
	if cfg.Redis.Addr != "" {
		relay, err := events.NewRelay(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel, wsHub)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect event relay")
		}
		defer relay.Close()

		listenCtx, stopListening := context.WithCancel(ctx)
		defer stopListening()
		go func() {
			if err := relay.Listen(listenCtx); err != nil && listenCtx.Err() == nil {
				log.Error().Err(err).Msg("Event relay stopped")
			}
		}()

		publisher = relay
		log.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("Event relay connected")
	}

	userService := services.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL)
	itemService := services.NewItemService(itemRepo, imageRepo, publisher)
	imageService := services.NewImageService(itemRepo, imageRepo, objects, publisher)

	router := handlers.NewRouter(handlers.RouterDeps{
		Items:          itemService,
		Images:         imageService,
		Users:          userService,
		Hub:            wsHub,
		Verifier:       userService,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("bucket", cfg.Storage.Bucket).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
