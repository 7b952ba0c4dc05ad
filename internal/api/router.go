package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/coachly/coachly/internal/api/handler"
	customMiddleware "github.com/coachly/coachly/internal/api/middleware"
	"github.com/coachly/coachly/internal/config"
	"github.com/coachly/coachly/internal/domain"
	"github.com/coachly/coachly/internal/llm"
	"github.com/coachly/coachly/internal/llm/anthropic"
	"github.com/coachly/coachly/internal/llm/gemini"
	"github.com/coachly/coachly/internal/llm/openai"
	"github.com/coachly/coachly/internal/repository/redis"
	"github.com/coachly/coachly/internal/security"
	"github.com/coachly/coachly/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, store domain.MessageStore, storePing func(ctx context.Context) error, userRepo domain.UserRepository, redisClient *redis.Client) (http.Handler, error) {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Initialize rate limiter
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)

	// Initialize LLM Router with providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.Anthropic.APIKey != "" {
		llmRouter.RegisterProvider(anthropic.NewProvider(
			cfg.LLM.Anthropic.APIKey,
			cfg.LLM.Anthropic.Model,
			cfg.Coach.MaxTokens,
			anthropic.WithTimeout(cfg.LLM.Timeout),
		))
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model, cfg.Coach.MaxTokens))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini.APIKey, cfg.LLM.Gemini.Model))
	}

	provider, err := llmRouter.GetProvider(cfg.LLM.DefaultProvider)
	if err != nil {
		return nil, err
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager)
	chatService := service.NewChatService(store, provider, cfg.Coach.SystemPrompt, provider.DefaultModel())

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	conversationHandler := handler.NewConversationHandler(chatService)

	// Auth middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(storePing))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/me", authHandler.Me)

			// LLM providers
			r.Get("/llm-providers", handler.ListLLMProviders(cfg, llmRouter))

			// Conversation routes
			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", conversationHandler.List)
				r.Post("/messages", conversationHandler.SendMessage)

				r.Route("/{conversationID}", func(r chi.Router) {
					r.Get("/messages", conversationHandler.GetMessages)
					r.Delete("/", conversationHandler.Delete)
				})
			})
		})
	})

	return r, nil
}
