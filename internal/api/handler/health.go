package handler

import (
	"context"
	"net/http"

	"github.com/coachly/coachly/internal/api/response"
	"github.com/coachly/coachly/internal/config"
	"github.com/coachly/coachly/internal/llm"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including store connectivity
func ReadyCheck(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "store not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListLLMProviders returns available LLM providers
func ListLLMProviders(cfg *config.Config, router *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers := []map[string]any{}

		for _, name := range router.ListProviders() {
			p, err := router.GetProvider(name)
			if err != nil {
				continue
			}
			providers = append(providers, map[string]any{
				"name":    name,
				"models":  p.AvailableModels(),
				"default": cfg.LLM.DefaultProvider == name,
			})
		}

		response.OK(w, map[string]any{
			"providers":        providers,
			"default_provider": cfg.LLM.DefaultProvider,
		})
	}
}
