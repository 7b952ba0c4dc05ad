package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/coachly/coachly/internal/domain"
	"github.com/coachly/coachly/internal/llm"
)

// Provider implements llm.Provider for Google Gemini
type Provider struct {
	apiKey string
	model  string
}

// NewProvider creates a new Gemini provider
func NewProvider(apiKey, model string) *Provider {
	return &Provider{
		apiKey: apiKey,
		model:  model,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) AvailableModels() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
	}
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// Generate replays the transcript as chat history and asks for the next
// turn. Gemini names the assistant role "model".
func (p *Provider) Generate(ctx context.Context, transcript []domain.Message, system string, model string) (string, error) {
	if !p.IsConfigured() {
		return "", fmt.Errorf("%w: gemini provider is not configured (missing API key)", llm.ErrAuthorization)
	}
	if len(transcript) == 0 {
		return "", fmt.Errorf("%w: empty transcript", llm.ErrBackend)
	}

	if model == "" {
		model = p.DefaultModel()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create gemini client: %v", llm.ErrTransport, err)
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)
	if system != "" {
		generativeModel.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	chat := generativeModel.StartChat()
	for _, m := range transcript[:len(transcript)-1] {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(transcript[len(transcript)-1].Content))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
				return "", fmt.Errorf("%w: gemini returned status %d", llm.ErrAuthorization, apiErr.Code)
			}
			return "", fmt.Errorf("%w: gemini returned status %d", llm.ErrBackend, apiErr.Code)
		}
		return "", fmt.Errorf("%w: %v", llm.ErrTransport, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response from gemini", llm.ErrBackend)
	}

	var output string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output += string(text)
		}
	}
	return output, nil
}
