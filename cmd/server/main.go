package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quizcrafter/internal/config"
	"quizcrafter/internal/llm"
	"quizcrafter/internal/logging"
	"quizcrafter/internal/pdf"
	"quizcrafter/internal/quiz"
)

var cfgFile string

// rootCmd runs the server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "quizcrafter",
	Short: "Generate multiple-choice quizzes from PDF documents",
	Long: `quizcrafter extracts the text of an uploaded PDF, splits it into chunks
and asks a language model for multiple-choice questions about each chunk.

Run without arguments (or with "serve") to start the HTTP API, or use
"generate" to build a quiz from a local file.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file (environment variables and .env take precedence)")
	rootCmd.AddCommand(serveCmd, generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates configuration from --config, .env and the
// environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildService wires the extraction and generation pipeline. The returned
// function releases the language model client.
func buildService(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*quiz.Service, func(), error) {
	completer, closeFn, err := llm.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize language model client: %w", err)
	}

	extractor := pdf.NewExtractor(logger)
	generator := quiz.NewGenerator(completer, cfg.Temperature, cfg.LLMTimeout, logger)
	return quiz.NewService(cfg, extractor, generator, logger), closeFn, nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	return logging.New(cfg.LogLevel, cfg.LogFormat)
}
