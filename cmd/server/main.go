package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/coachly/coachly/internal/api"
	"github.com/coachly/coachly/internal/config"
	"github.com/coachly/coachly/internal/domain"
	"github.com/coachly/coachly/internal/logging"
	"github.com/coachly/coachly/internal/repository/mongo"
	"github.com/coachly/coachly/internal/repository/postgres"
	"github.com/coachly/coachly/internal/repository/redis"
	"github.com/coachly/coachly/internal/repository/sqlite"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	if err := logging.Setup(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Backend).
		Msg("Starting Coachly API server")

	// Initialize message store and user repository
	store, userRepo, storePing, closeStore, err := openStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open message store")
	}
	defer closeStore()

	// Initialize Redis
	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Initialize router
	router, err := api.NewRouter(cfg, store, storePing, userRepo, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// openStore builds the configured message log backend along with its user
// repository, readiness probe, and shutdown hook.
func openStore(ctx context.Context, cfg *config.Config) (domain.MessageStore, domain.UserRepository, func(context.Context) error, func(), error) {
	switch cfg.Store.Backend {
	case "postgres", "":
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return postgres.NewStore(db), postgres.NewUserRepository(db), db.Ping, db.Close, nil

	case "mongodb":
		store, err := mongo.NewStore(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		closer := func() {
			if err := store.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("Failed to close mongo client")
			}
		}
		return store, mongo.NewUserRepository(store), store.Ping, closer, nil

	case "sqlite":
		store, err := sqlite.NewStore(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		closer := func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		}
		return store, sqlite.NewUserRepository(store), store.Ping, closer, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}
