package llm

import (
	"context"
	"os"
	"testing"

	"aimigo/pkg/schema"
)

// TestE2E_Generate performs an end-to-end call against the real service.
// Skipped unless RUN_E2E_TESTS=true and LLM_API_KEY are set.
func TestE2E_Generate(t *testing.T) {
	if os.Getenv("RUN_E2E_TESTS") != "true" {
		t.Skip("E2E test skipped - set RUN_E2E_TESTS=true to run")
	}

	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		t.Fatal("LLM_API_KEY not set")
	}

	gen, err := NewGenerator(context.Background(), &Config{
		Provider: Provider(os.Getenv("LLM_PROVIDER")),
		APIKey:   apiKey,
		BaseURL:  os.Getenv("LLM_BASE_URL"),
		Model:    os.Getenv("LLM_MODEL"),
	})
	if err != nil {
		t.Fatalf("Failed to create generator: %v", err)
	}

	profile := schema.IntakeProfile{
		Work:         "engineer",
		Struggles:    "stress",
		Achievements: "promotion",
		Likes:        "hiking",
		Dislikes:     "traffic",
	}

	reply, err := gen.Generate(context.Background(), BuildPersonaPrompt(profile, "Nyx"), []schema.Turn{
		{Role: schema.RoleAssistant, Text: "hey! I'm Nyx. what's going on in your world?"},
		{Role: schema.RoleUser, Text: "long day at work, you?"},
	})
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}

	t.Logf("reply: %s", reply)
	if reply == "" {
		t.Error("Expected non-empty reply")
	}
}
