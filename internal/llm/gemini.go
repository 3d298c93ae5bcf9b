package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiBackend streams completions from the Gemini API.
type GeminiBackend struct {
	client *genai.Client
	config *Config
}

// NewGeminiBackend creates a Gemini-backed Backend.
func NewGeminiBackend(ctx context.Context, config *Config) (*GeminiBackend, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      config.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: config.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiBackend{client: client, config: config}, nil
}

// Complete streams the reply, handing each fragment to onFragment. The last
// usage metadata seen on the stream is reported as TotalTokens.
func (g *GeminiBackend) Complete(ctx context.Context, req CompletionRequest, onFragment StreamHandler) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = g.config.Model
	}
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = g.config.MaxTokens
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(maxTokens),
	}

	var text strings.Builder
	completion := &Completion{}
	for resp, err := range g.client.Models.GenerateContentStream(ctx, model, genai.Text(req.Prompt), cfg) {
		if err != nil {
			return nil, fmt.Errorf("gemini stream failed: %w", err)
		}
		fragment := resp.Text()
		text.WriteString(fragment)
		emit(onFragment, fragment)
		if resp.UsageMetadata != nil {
			completion.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
		}
	}

	completion.Text = text.String()
	return completion, nil
}

// NewBackend builds the Backend selected by config.Provider.
func NewBackend(ctx context.Context, config *Config) (Backend, error) {
	switch config.Provider {
	case ProviderGemini:
		return NewGeminiBackend(ctx, config)
	case ProviderOpenAI:
		return NewClient(config)
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
}
