package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aimigo/pkg/schema"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	config *Config
	http   *http.Client
}

// NewClient creates a new chat completions client. A missing API key is
// not an error here; Generate reports it on first use.
func NewClient(config *Config) (*Client, error) {
	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		http: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// ChatRequest represents a chat completions request.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

// ChatMessage represents a message in the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse represents a chat completions response.
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// Generate sends the system prompt and history and returns the first choice.
func (c *Client) Generate(ctx context.Context, systemPrompt string, history []schema.Turn) (string, error) {
	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, ChatMessage{Role: "system", Content: systemPrompt})
	for _, turn := range NormalizeTurns(history, false) {
		messages = append(messages, ChatMessage{Role: string(turn.Role), Content: turn.Text})
	}
	return c.Complete(ctx, messages)
}

// Complete makes a single HTTP call to the chat completions API.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if c.config.APIKey == "" {
		return "", NewConfigurationError("API key is not configured (set LLM_API_KEY)")
	}

	reqBody := ChatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)

	if err != nil {
		slog.Error("chat completions request failed",
			"error", err.Error(),
			"duration", duration,
		)
		return "", NewTransportError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("Failed to close response body", "error", err)
		}
	}()

	slog.Info("chat completions request completed",
		"status_code", resp.StatusCode,
		"model", c.config.Model,
		"messages", len(messages),
		"duration", duration,
	)

	if resp.StatusCode != http.StatusOK {
		var errBody bytes.Buffer
		if _, err := errBody.ReadFrom(resp.Body); err != nil {
			slog.Warn("Failed to read error response body", "error", err)
			return "", NewRemoteError(resp.StatusCode, fmt.Sprintf("status %d (failed to read error body)", resp.StatusCode))
		}
		return "", NewRemoteError(resp.StatusCode, errBody.String())
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", NewMalformedError("response body", err)
	}

	if chatResp.Error != nil {
		return "", NewRemoteError(0, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		slog.Warn("chat completions returned no choices")
		return EmptyResponse, nil
	}

	return firstText(chatResp.Choices[0].Message.Content), nil
}
