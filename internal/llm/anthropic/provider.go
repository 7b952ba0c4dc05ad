package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coachly/coachly/internal/domain"
	"github.com/coachly/coachly/internal/llm"
)

// Provider implements llm.Provider against the Anthropic Messages API
type Provider struct {
	apiKey       string
	defaultModel string
	maxTokens    int
	client       *http.Client
	baseURL      string
}

// Option customizes a Provider
type Option func(*Provider)

// WithBaseURL overrides the API base URL (used by tests)
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// WithTimeout bounds the worst-case latency of a single generation call
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.client.Timeout = d }
}

// NewProvider creates a new Anthropic provider
func NewProvider(apiKey, defaultModel string, maxTokens int, opts ...Option) *Provider {
	if defaultModel == "" {
		defaultModel = "claude-sonnet-4-20250514"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	p := &Provider{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		maxTokens:    maxTokens,
		client:       &http.Client{Timeout: 60 * time.Second},
		baseURL:      "https://api.anthropic.com/v1",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "anthropic"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"claude-sonnet-4-20250514",
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
		"claude-3-opus-20240229",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []wireMessage `json:"messages"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends the transcript as a single Messages API request and
// returns the first generated text segment.
func (p *Provider) Generate(ctx context.Context, transcript []domain.Message, system string, model string) (string, error) {
	if model == "" {
		model = p.defaultModel
	}

	wire := make([]wireMessage, len(transcript))
	for i, m := range transcript {
		wire[i] = wireMessage{Role: string(m.Role), Content: m.Content}
	}

	req := messagesRequest{
		Model:     model,
		MaxTokens: p.maxTokens,
		System:    system,
		Messages:  wire,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: anthropic returned status %d", llm.ErrAuthorization, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: anthropic returned status %d", llm.ErrBackend, resp.StatusCode)
	}

	var messagesResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&messagesResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", llm.ErrBackend, err)
	}

	if len(messagesResp.Content) == 0 {
		return "", fmt.Errorf("%w: empty response from anthropic", llm.ErrBackend)
	}

	return messagesResp.Content[0].Text, nil
}
