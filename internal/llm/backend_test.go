package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sentinel", err: fmt.Errorf("wrapped: %w", ErrRateLimited), want: true},
		{name: "status 429", err: &StatusError{StatusCode: 429}, want: true},
		{name: "status 503", err: &StatusError{StatusCode: 503, Body: "unavailable"}, want: false},
		{name: "quota message", err: errors.New("Quota exceeded for model"), want: true},
		{name: "gemini resource exhausted", err: errors.New("Error 429, Message: x, Status: RESOURCE_EXHAUSTED"), want: true},
		{name: "rate limit message", err: errors.New("Rate limit reached"), want: true},
		{name: "ordinary", err: errors.New("connection reset"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimit(tt.err))
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Provider: ProviderGemini, APIKey: "k", Model: "gemini-2.0-flash", MaxTokens: 8192, Temperature: 0.3, Timeout: 60}
	assert.NoError(t, valid.Validate())

	openai := valid
	openai.Provider = ProviderOpenAI
	assert.ErrorContains(t, openai.Validate(), "API URL")

	bad := valid
	bad.Provider = "claude"
	assert.ErrorContains(t, bad.Validate(), "unknown provider")

	bad = valid
	bad.Temperature = 2.5
	assert.Error(t, bad.Validate())

	bad = valid
	bad.MaxTokens = 0
	assert.Error(t, bad.Validate())
}

func TestConfigGetHeaders(t *testing.T) {
	c := Config{APIKey: "k", SiteURL: "https://example.com", AppName: "subs"}
	headers := c.GetHeaders()
	assert.Equal(t, "Bearer k", headers["Authorization"])
	assert.Equal(t, "https://example.com", headers["HTTP-Referer"])
	assert.Equal(t, "subs", headers["X-Title"])
}
