// Package summarizer generates one-sentence document overviews through a
// chat-completions endpoint (Ollama or OpenAI-compatible).
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yoanbernabeu/docdex/config"
)

// FailureMarker is stored as the overview when summarization hard-fails, so
// the document still has a catalog entry and the failure is visible in
// search results.
const FailureMarker = "(summary unavailable)"

const (
	defaultModel = "llama3.2"
	// maxInputChars caps how much of the document is sent to the model.
	maxInputChars = 8000

	systemPrompt = "You summarize documents. Reply with exactly one sentence describing what the document is about. No preamble, no quotes."
)

// Summarizer produces a short overview of a document.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Client speaks the OpenAI-style /chat/completions API, which Ollama also
// serves under /v1.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: "http://localhost:11434",
		model:    defaultModel,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return c
}

// NewFromConfig builds the summarizer client from configuration.
func NewFromConfig(cfg *config.Config) *Client {
	return NewClient(
		WithEndpoint(cfg.Summarizer.Endpoint),
		WithModel(cfg.Summarizer.Model),
		WithKey(cfg.Summarizer.APIKey),
	)
}

// Summarize returns a one-sentence overview of text. Input beyond
// maxInputChars is truncated before sending.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.chatBase())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to summarizer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summarizer API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("summarizer returned no choices")
	}

	overview := strings.TrimSpace(result.Choices[0].Message.Content)
	if overview == "" {
		return "", fmt.Errorf("summarizer returned an empty overview")
	}
	return overview, nil
}

// chatBase appends /v1 for bare Ollama endpoints, which serve the
// OpenAI-compatible API under that prefix.
func (c *Client) chatBase() string {
	base := strings.TrimRight(c.endpoint, "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}
