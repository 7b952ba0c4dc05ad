package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coachly/coachly/internal/domain"
	"github.com/coachly/coachly/internal/llm"
)

func TestProvider_IsConfigured(t *testing.T) {
	assert.False(t, NewProvider("", "").IsConfigured())
	assert.True(t, NewProvider("test-key", "").IsConfigured())
}

func TestProvider_DefaultModel(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", NewProvider("test-key", "").DefaultModel())
	assert.Equal(t, "gemini-1.5-pro", NewProvider("test-key", "gemini-1.5-pro").DefaultModel())
}

func TestProvider_GenerateGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("missing api key", func(t *testing.T) {
		_, err := NewProvider("", "").Generate(ctx, []domain.Message{
			*domain.NewMessage(domain.RoleUser, "hello"),
		}, "", "")
		assert.ErrorIs(t, err, llm.ErrAuthorization)
	})

	t.Run("empty transcript", func(t *testing.T) {
		_, err := NewProvider("test-key", "").Generate(ctx, nil, "", "")
		assert.ErrorIs(t, err, llm.ErrBackend)
	})
}
