package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/option"

	"aimigo/pkg/schema"
)

// GeminiGenerator generates replies with Google Gemini. Gemini requires the
// history to open with the user and to alternate strictly, so turns are
// normalized before sending.
type GeminiGenerator struct {
	config *Config

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiGenerator creates a Gemini generator. The API client is created
// lazily on the first Generate call.
func NewGeminiGenerator(config *Config) *GeminiGenerator {
	return &GeminiGenerator{config: config}
}

// Close releases the underlying API client.
func (g *GeminiGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

func (g *GeminiGenerator) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	if g.config.APIKey == "" {
		return nil, NewConfigurationError("Gemini API key is not configured (set LLM_API_KEY)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.config.APIKey))
	if err != nil {
		return nil, NewConfigurationError(fmt.Sprintf("create Gemini client: %v", err))
	}
	g.client = client
	return client, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, systemPrompt string, history []schema.Turn) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	past, last, err := splitGeminiHistory(history)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(g.config.Model)
	model.SetTemperature(g.config.Temperature)
	model.SetMaxOutputTokens(int32(g.config.MaxTokens))
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	cs := model.StartChat()
	cs.History = past

	start := time.Now()
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	duration := time.Since(start)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			slog.Warn("Gemini blocked the reply", "error", err.Error(), "duration", duration)
			return EmptyResponse, nil
		}
		slog.Error("Gemini request failed", "error", err.Error(), "duration", duration)
		return "", classifyGeminiError(err)
	}

	slog.Info("Gemini request completed",
		"model", g.config.Model,
		"turns", len(past)+1,
		"duration", duration,
	)

	return firstText(extractText(resp)), nil
}

// splitGeminiHistory converts history to Gemini contents and separates the
// final user turn that is sent as the new message.
func splitGeminiHistory(history []schema.Turn) ([]*genai.Content, string, error) {
	turns := NormalizeTurns(history, true)
	if len(turns) == 0 || turns[len(turns)-1].Role != schema.RoleUser {
		return nil, "", fmt.Errorf("history must end with a user turn")
	}

	past := make([]*genai.Content, 0, len(turns)-1)
	for _, turn := range turns[:len(turns)-1] {
		role := "user"
		if turn.Role == schema.RoleAssistant {
			role = "model"
		}
		past = append(past, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}
	return past, turns[len(turns)-1].Text, nil
}

// extractText returns the text of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}

func classifyGeminiError(err error) error {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		remote := NewRemoteError(apiErr.HTTPCode(), apiErr.Error())
		remote.Err = err
		return remote
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewTransportError(err)
	}

	remote := NewRemoteError(0, err.Error())
	remote.Err = err
	return remote
}
