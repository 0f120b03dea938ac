package llm

import (
	"context"
	"testing"

	"aimigo/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTurns(t *testing.T) {
	user := func(s string) schema.Turn { return schema.Turn{Role: schema.RoleUser, Text: s} }
	bot := func(s string) schema.Turn { return schema.Turn{Role: schema.RoleAssistant, Text: s} }

	tests := []struct {
		name     string
		history  []schema.Turn
		strict   bool
		expected []schema.Turn
	}{
		{
			name:     "alternating history unchanged",
			history:  []schema.Turn{bot("hey"), user("hi"), bot("sup")},
			expected: []schema.Turn{bot("hey"), user("hi"), bot("sup")},
		},
		{
			name:     "adjacent user turns merged",
			history:  []schema.Turn{user("a"), user("b"), bot("c")},
			expected: []schema.Turn{user("a\n\nb"), bot("c")},
		},
		{
			name:     "blank turns dropped before merging",
			history:  []schema.Turn{user("a"), bot("  "), user("b")},
			expected: []schema.Turn{user("a\n\nb")},
		},
		{
			name:     "strict drops leading assistant turns",
			history:  []schema.Turn{bot("hey"), bot("you there?"), user("hi"), bot("yo")},
			strict:   true,
			expected: []schema.Turn{user("hi"), bot("yo")},
		},
		{
			name:     "non-strict keeps leading assistant turn",
			history:  []schema.Turn{bot("hey"), user("hi")},
			expected: []schema.Turn{bot("hey"), user("hi")},
		},
		{
			name:     "empty history",
			history:  nil,
			strict:   true,
			expected: []schema.Turn{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTurns(tt.history, tt.strict))
		})
	}
}

func TestNormalizeTurns_DoesNotMutateInput(t *testing.T) {
	history := []schema.Turn{
		{Role: schema.RoleUser, Text: "a"},
		{Role: schema.RoleUser, Text: "b"},
	}
	NormalizeTurns(history, false)
	assert.Equal(t, "a", history[0].Text)
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	gen, err := NewGenerator(ctx, &Config{})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, gen)

	gen, err = NewGenerator(ctx, &Config{Provider: ProviderGemini})
	require.NoError(t, err)
	assert.IsType(t, &GeminiGenerator{}, gen)

	gen, err = NewGenerator(ctx, &Config{Provider: ProviderGenkit})
	require.NoError(t, err)
	assert.IsType(t, &GenkitGenerator{}, gen)

	_, err = NewGenerator(ctx, &Config{Provider: "nope"})
	assert.Error(t, err)
}
