package llm

import (
	"context"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"aimigo/pkg/schema"
)

// GenkitModelName is the name the chat completions backend is registered under.
const GenkitModelName = "aimigo/chat"

// GenkitGenerator generates replies through a Genkit model backed by the
// chat completions client.
type GenkitGenerator struct {
	g     *genkit.Genkit
	model ai.Model
}

// NewGenkitGenerator registers client as a Genkit model and returns a
// generator that calls it.
func NewGenkitGenerator(ctx context.Context, client *Client) (*GenkitGenerator, error) {
	g := genkit.Init(ctx)

	model := genkit.DefineModel(
		g,
		GenkitModelName,
		&ai.ModelOptions{
			Label: "Chat completions (" + client.config.Model + ")",
			Supports: &ai.ModelSupports{
				Multiturn:  true,
				SystemRole: true,
			},
		},
		func(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
			text, err := client.Complete(ctx, toChatMessages(req.Messages))
			if err != nil {
				return nil, err
			}
			return &ai.ModelResponse{
				Request: req,
				Message: &ai.Message{
					Role:    ai.RoleModel,
					Content: []*ai.Part{ai.NewTextPart(text)},
				},
			}, nil
		},
	)

	return &GenkitGenerator{g: g, model: model}, nil
}

// Generate implements Generator.
func (gg *GenkitGenerator) Generate(ctx context.Context, systemPrompt string, history []schema.Turn) (string, error) {
	req := &ai.ModelRequest{Messages: toGenkitMessages(systemPrompt, NormalizeTurns(history, false))}

	resp, err := gg.model.Generate(ctx, req, nil)
	if err != nil {
		if ErrorType(err) != "" {
			return "", err
		}
		remote := NewRemoteError(0, err.Error())
		remote.Err = err
		return "", remote
	}

	if resp == nil || resp.Message == nil {
		return EmptyResponse, nil
	}
	return firstText(messageText(resp.Message)), nil
}

func toGenkitMessages(systemPrompt string, history []schema.Turn) []*ai.Message {
	msgs := make([]*ai.Message, 0, len(history)+1)
	msgs = append(msgs, &ai.Message{
		Role:    ai.RoleSystem,
		Content: []*ai.Part{ai.NewTextPart(systemPrompt)},
	})
	for _, turn := range history {
		role := ai.RoleUser
		if turn.Role == schema.RoleAssistant {
			role = ai.RoleModel
		}
		msgs = append(msgs, &ai.Message{
			Role:    role,
			Content: []*ai.Part{ai.NewTextPart(turn.Text)},
		})
	}
	return msgs
}

func toChatMessages(msgs []*ai.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		switch m.Role {
		case ai.RoleSystem:
			role = "system"
		case ai.RoleModel:
			role = "assistant"
		}
		out = append(out, ChatMessage{Role: role, Content: messageText(m)})
	}
	return out
}

func messageText(m *ai.Message) string {
	var sb strings.Builder
	for _, part := range m.Content {
		if part != nil && part.IsText() {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
