package llm

import (
	"fmt"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds the configuration for a completion backend
// Supports Gemini and any OpenAI-compatible provider (OpenRouter, OpenAI, local servers)
//
// Provider: "gemini" or "openai"
// APIKey: API key for the provider (required)
// APIURL: Base URL of an OpenAI-compatible API (ignored for gemini)
// BaseURL: Gemini API endpoint override (optional, ignored for openai)
// Model: Default model name
// MaxTokens: Default maximum output tokens
// Temperature: Default sampling temperature
// Timeout: Request timeout in seconds
// SiteURL: Site URL for the HTTP-Referer header (optional)
// AppName: Application name for the X-Title header (optional)
type Config struct {
	Provider    string  `json:"provider" yaml:"provider"`
	APIKey      string  `json:"api_key" yaml:"api_key"`
	APIURL      string  `json:"api_url" yaml:"api_url"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string  `json:"model" yaml:"model"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Timeout     int     `json:"timeout" yaml:"timeout"`
	SiteURL     string  `json:"site_url" yaml:"site_url"`
	AppName     string  `json:"app_name" yaml:"app_name"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Provider != ProviderGemini && c.Provider != ProviderOpenAI {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.Provider == ProviderOpenAI && c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max tokens must be greater than 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	return nil
}

// GetHeaders returns the headers for an OpenAI-compatible request
func (c *Config) GetHeaders() map[string]string {
	headers := map[string]string{
		"Authorization": "Bearer " + c.APIKey,
		"Content-Type":  "application/json",
	}

	if c.SiteURL != "" {
		headers["HTTP-Referer"] = c.SiteURL
	}
	if c.AppName != "" {
		headers["X-Title"] = c.AppName
	}

	return headers
}
