package llm

import (
	"context"
	"fmt"
	"strings"

	"aimigo/pkg/schema"
)

// EmptyResponse is returned in place of text when the service answers
// without anything usable.
const EmptyResponse = "..."

// Generator turns a system prompt and turn history into one assistant reply.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []schema.Turn) (string, error)
}

// NewGenerator builds the backend selected by config.Provider.
func NewGenerator(ctx context.Context, config *Config) (Generator, error) {
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch config.Provider {
	case ProviderGenkit:
		client, err := NewClient(config)
		if err != nil {
			return nil, err
		}
		return NewGenkitGenerator(ctx, client)
	case ProviderGemini:
		return NewGeminiGenerator(config), nil
	default:
		return NewClient(config)
	}
}

// NormalizeTurns merges adjacent turns from the same role into one, joined
// by a blank line, and drops empty turns. With strict set, leading assistant
// turns are dropped as well so the history opens with the user.
func NormalizeTurns(history []schema.Turn, strict bool) []schema.Turn {
	out := make([]schema.Turn, 0, len(history))
	for _, turn := range history {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		if strict && len(out) == 0 && turn.Role != schema.RoleUser {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == turn.Role {
			out[n-1].Text = out[n-1].Text + "\n\n" + text
			continue
		}
		out = append(out, schema.Turn{Role: turn.Role, Text: text})
	}
	return out
}

// firstText trims a candidate and substitutes EmptyResponse when blank.
func firstText(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return EmptyResponse
	}
	return candidate
}
