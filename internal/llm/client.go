package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MimeLyc/subtitle-batch-translator/pkg/log"
)

// Client is an OpenAI-compatible chat completions client
// Thread-safe for concurrent use
//
// config: Configuration for the LLM API
// httpClient: HTTP client for API requests
// baseURL: Base URL for the LLM API
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new LLM client with the given configuration
//
// Example:
//
//	client, err := llm.NewClient(&llm.Config{Provider: "openai", APIKey: key, ...})
//	if err != nil {
//		log.Fatal(err)
//	}
//	reply, err := client.Complete(ctx, llm.CompletionRequest{Prompt: "Hello"}, nil)
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client := &Client{
		config:  config,
		baseURL: strings.TrimRight(config.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}

	return client, nil
}

// Complete sends the prompt as a single user message. When onFragment is set
// the reply is streamed over server-sent events and every content delta is
// handed to it; otherwise a plain JSON response is requested.
func (c *Client) Complete(ctx context.Context, req CompletionRequest, onFragment StreamHandler) (*Completion, error) {
	request := ChatRequest{
		Model:       c.getModel(req),
		Messages:    []Message{{Role: "user", Content: req.Prompt}},
		MaxTokens:   c.getMaxTokens(req),
		Temperature: c.getTemperature(req),
	}
	if onFragment != nil {
		request.Stream = true
		request.StreamOptions = &StreamOptions{IncludeUsage: true}
	}

	resp, err := c.makeRequest(ctx, http.MethodPost, "/chat/completions", request)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	defer resp.Body.Close()

	if request.Stream && strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		return c.readStream(resp.Body, onFragment)
	}

	completion, err := c.readResponse(resp.Body)
	if err != nil {
		return nil, err
	}
	// the server ignored stream=true; deliver the whole reply as one fragment
	emit(onFragment, completion.Text)
	return completion, nil
}

// makeRequest makes a raw HTTP request to the configured LLM API. Non-2xx
// responses are returned as *StatusError with the body drained.
func (c *Client) makeRequest(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	headers := c.config.GetHeaders()
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if os.IsTimeout(err) {
			return nil, fmt.Errorf("request timed out: %w", err)
		}
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		responseBody, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(responseBody)}
	}

	return resp, nil
}

func (c *Client) readResponse(body io.Reader) (*Completion, error) {
	responseBody, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var chatResponse ChatResponse
	if err := json.Unmarshal(responseBody, &chatResponse); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResponse.Error != nil && chatResponse.Error.Message != "" {
		return nil, chatResponse.Error
	}
	if len(chatResponse.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &Completion{
		Text:        chatResponse.Choices[0].Message.Content,
		TotalTokens: chatResponse.Usage.TotalTokens,
	}, nil
}

// readStream consumes "data: {...}" lines until "data: [DONE]" or EOF.
func (c *Client) readStream(body io.Reader, onFragment StreamHandler) (*Completion, error) {
	var text strings.Builder
	completion := &Completion{}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk ChatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			log.Debug("Skipping malformed stream chunk: %v", err)
			continue
		}
		if chunk.Error != nil && chunk.Error.Message != "" {
			return nil, chunk.Error
		}
		if chunk.Usage != nil {
			completion.TotalTokens = chunk.Usage.TotalTokens
		}
		for _, choice := range chunk.Choices {
			text.WriteString(choice.Delta.Content)
			emit(onFragment, choice.Delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	completion.Text = text.String()
	return completion, nil
}

// getModel returns the model to use for the request
func (c *Client) getModel(req CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.config.Model
}

// getMaxTokens returns the max tokens to use for the request
func (c *Client) getMaxTokens(req CompletionRequest) int {
	if req.MaxOutputTokens > 0 {
		return req.MaxOutputTokens
	}
	return c.config.MaxTokens
}

// getTemperature returns the temperature to use for the request
func (c *Client) getTemperature(req CompletionRequest) float64 {
	if req.Temperature > 0 && req.Temperature <= 2 {
		return req.Temperature
	}
	return c.config.Temperature
}
