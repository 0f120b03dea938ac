package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"aimigo/internal/core"
	"aimigo/internal/llm"
	"aimigo/internal/repository"
	"aimigo/pkg/schema"
)

var scriptPath string

var rootCmd = &cobra.Command{
	Use:   "gatekeeper",
	Short: "AmoAi portal conversations",
	Long: "Runs the Gatekeeper intake interview followed by a chat with a persona from Xorld,\n" +
		"either in the terminal or as an HTTP service for the widget.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&scriptPath, "script", "s", "", "YAML script overriding the built-in one (default: $SCRIPT_FILE)")
	rootCmd.AddCommand(chatCmd, serveCmd)
}

// runtime is what both commands need to run conversations.
type runtime struct {
	cfg    *core.Config
	logger core.Logger
	gen    llm.Generator
	script schema.Script
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := core.NewLogger(cfg.LogLevel)

	script := schema.DefaultScript()
	path := scriptPath
	if path == "" {
		path = cfg.ScriptFile
	}
	if path != "" {
		if script, err = repository.LoadScript(path); err != nil {
			return nil, err
		}
		logger.Info("script loaded", "path", path)
	}
	cfg.ApplyVariant(&script)
	if err := schema.ValidateScript(&script); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}

	gen, err := llm.NewGenerator(ctx, cfg.LLMConfig())
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}
	if cfg.APIKey == "" {
		logger.Warn("LLM_API_KEY is not set; the persona will only answer with the fallback line")
	}

	return &runtime{cfg: cfg, logger: logger, gen: gen, script: script}, nil
}

func (rt *runtime) controllerOptions() []core.Option {
	return []core.Option{
		core.WithScript(rt.script),
		core.WithLogger(rt.logger),
	}
}

func (rt *runtime) close() {
	if c, ok := rt.gen.(io.Closer); ok {
		if err := c.Close(); err != nil {
			rt.logger.Warn("close generator", "error", err)
		}
	}
}
