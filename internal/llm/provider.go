package llm

import (
	"context"

	"github.com/coachly/coachly/internal/domain"
)

// Provider defines the interface for text-generation backends. Generate is
// stateless: one call maps to exactly one backend request, with no retries.
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Generate returns the next assistant utterance for the given
	// role-tagged transcript and system instruction. Implementations
	// must preserve transcript order and must not mutate it.
	Generate(ctx context.Context, transcript []domain.Message, system string, model string) (string, error)
}
