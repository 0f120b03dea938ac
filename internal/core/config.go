package core

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"aimigo/internal/llm"
	"aimigo/pkg/schema"
)

// Config holds the application configuration.
type Config struct {
	LogLevel string // debug, info, warn, error

	// Generation backend
	Provider   llm.Provider  // openai, genkit, gemini
	APIKey     string        // Checked on the first generation call
	BaseURL    string        // Chat-completions endpoint root
	Model      string        // Backend model name
	LLMTimeout time.Duration // Zero means no timeout

	// Conversation
	ScriptFile string         // Optional YAML script overriding the built-in one
	AckMode    schema.AckMode // Overrides the script's ack mode when set
	GateAfter  int            // Overrides the script's gate when >= 0

	// HTTP surface
	Port           string
	AuthJWTSecret  string        // Empty accepts every authenticate call
	SessionIdleTTL time.Duration // Idle sessions are closed after this long
	TranscriptDir  string        // Closed sessions are exported here when set
}

// LoadConfig loads configuration from environment variables, reading a .env
// file in the working directory first when one exists.
func LoadConfig() (*Config, error) {
	// Variables already in the environment win over the file
	_ = godotenv.Load()

	logLevel := getEnvOrDefault("LOG_LEVEL", "info")

	// DEBUG flag overrides log level
	if os.Getenv("DEBUG") == "1" {
		logLevel = "debug"
	}

	cfg := &Config{
		LogLevel:      logLevel,
		Provider:      llm.Provider(getEnvOrDefault("LLM_PROVIDER", string(llm.ProviderOpenAI))),
		APIKey:        getEnvOrDefault("LLM_API_KEY", os.Getenv("DEEPSEEK_API")),
		BaseURL:       os.Getenv("LLM_BASE_URL"),
		Model:         os.Getenv("LLM_MODEL"),
		ScriptFile:    os.Getenv("SCRIPT_FILE"),
		AckMode:       schema.AckMode(os.Getenv("ACK_MODE")),
		GateAfter:     -1,
		Port:          getEnvOrDefault("PORT", "8080"),
		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		TranscriptDir: os.Getenv("TRANSCRIPT_DIR"),
	}

	var err error
	if cfg.LLMTimeout, err = getDurationOrDefault("LLM_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = getDurationOrDefault("SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}

	if v := os.Getenv("GATE_AFTER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &ValidationError{Field: "GATE_AFTER", Message: fmt.Sprintf("must be a non-negative integer, got %q", v), Err: err}
		}
		cfg.GateAfter = n
	}

	switch cfg.AckMode {
	case "", schema.AckStatic, schema.AckGenerated:
	default:
		return nil, &ValidationError{Field: "ACK_MODE", Message: fmt.Sprintf("must be static or generated, got %q", cfg.AckMode)}
	}

	return cfg, nil
}

// LLMConfig returns the generation backend configuration.
func (c *Config) LLMConfig() *llm.Config {
	return &llm.Config{
		Provider: c.Provider,
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
		Model:    c.Model,
		Timeout:  c.LLMTimeout,
	}
}

// ApplyVariant overrides the script's variant with configured values.
func (c *Config) ApplyVariant(s *schema.Script) {
	if c.AckMode != "" {
		s.Variant.AckMode = c.AckMode
	}
	if c.GateAfter >= 0 {
		s.Variant.GateAfter = c.GateAfter
	}
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, &ValidationError{Field: key, Message: fmt.Sprintf("must be a non-negative duration, got %q", value), Err: err}
	}
	return d, nil
}
