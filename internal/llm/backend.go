package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// ErrRateLimited marks a backend failure caused by quota or request-rate limits.
var ErrRateLimited = errors.New("rate limited")

// CompletionRequest is a single prompt-in, text-out request
//
// Model: Model identifier understood by the backend
// Prompt: The full request text
// Temperature: Sampling temperature (0-2)
// MaxOutputTokens: Upper bound on generated tokens
type CompletionRequest struct {
	Model           string
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
}

// Completion is the concatenated reply of a completion request
//
// Text: Full response text
// TotalTokens: Token usage reported by the backend, zero when unknown
type Completion struct {
	Text        string
	TotalTokens int
}

// StreamHandler receives text fragments as they arrive. Fragments concatenate
// to Completion.Text.
type StreamHandler func(fragment string)

// Backend is the text-completion service the translation pipeline talks to.
type Backend interface {
	Complete(ctx context.Context, req CompletionRequest, onFragment StreamHandler) (*Completion, error)
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Is reports 429 responses as ErrRateLimited.
func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

var rateLimitMarkers = []string{"429", "quota", "rate limit", "resource_exhausted"}

// IsRateLimit reports whether err signals a rate-limit condition, either
// typed (ErrRateLimited, a 429 StatusError or genai.APIError) or by its message.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func emit(onFragment StreamHandler, fragment string) {
	if onFragment != nil && fragment != "" {
		onFragment(fragment)
	}
}
