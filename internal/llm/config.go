package llm

import (
	"fmt"
	"time"
)

// Provider selects the generation backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai" // OpenAI-compatible chat completions (DeepSeek, OpenRouter)
	ProviderGenkit Provider = "genkit" // Chat completions routed through a Genkit model
	ProviderGemini Provider = "gemini" // Google Gemini
)

// Config contains configuration for the generation backends.
type Config struct {
	// Provider selects the backend
	// Default: openai
	Provider Provider

	// APIKey is the bearer credential. It is checked on first use, not here.
	APIKey string

	// BaseURL is the chat completions API base URL
	// Default: https://api.deepseek.com
	BaseURL string

	// Model is the model identifier sent with every request
	// Default: deepseek-chat (gemini-2.5-flash for the gemini provider)
	Model string

	// MaxTokens caps the length of a reply
	// Default: 300
	MaxTokens int

	// Temperature is the sampling temperature
	// Default: 0.9
	Temperature float32

	// Timeout is the HTTP request timeout. Zero leaves the transport default.
	Timeout time.Duration
}

// Validate checks that config fields are usable.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGenkit, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.Provider != ProviderGemini && c.BaseURL == "" {
		return fmt.Errorf("BaseURL is required")
	}

	if c.Model == "" {
		return fmt.Errorf("Model is required")
	}

	if c.MaxTokens < 0 {
		return fmt.Errorf("MaxTokens must not be negative")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("Timeout must not be negative")
	}

	return nil
}

// SetDefaults fills in default values for optional fields.
func (c *Config) SetDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}

	if c.BaseURL == "" && c.Provider != ProviderGemini {
		c.BaseURL = "https://api.deepseek.com"
	}

	if c.Model == "" {
		if c.Provider == ProviderGemini {
			c.Model = "gemini-2.5-flash"
		} else {
			c.Model = "deepseek-chat"
		}
	}

	if c.MaxTokens == 0 {
		c.MaxTokens = 300
	}

	if c.Temperature == 0 {
		c.Temperature = 0.9
	}
}
