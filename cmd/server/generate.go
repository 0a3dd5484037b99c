package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quizcrafter/internal/api/handlers"
	"quizcrafter/internal/logging"
)

var (
	generateNumber int
	generatePretty bool
	generateQuiet  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <file.pdf>",
	Short: "Generate a quiz from a local PDF and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		if generateQuiet {
			logger = logging.Discard()
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		service, closeFn, err := buildService(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		opts := generateOptions{
			number:   generateNumber,
			pretty:   generatePretty,
			maxBytes: cfg.MaxUploadBytes,
		}
		return runGenerate(ctx, service, args[0], opts, cmd.OutOrStdout())
	},
}

func init() {
	generateCmd.Flags().IntVarP(&generateNumber, "number", "n", 0, "total number of questions (default: per-chunk count)")
	generateCmd.Flags().BoolVar(&generatePretty, "pretty", false, "indent the JSON output")
	generateCmd.Flags().BoolVarP(&generateQuiet, "quiet", "q", false, "suppress log output")
}

type generateOptions struct {
	number   int
	pretty   bool
	maxBytes int64
}

// runGenerate applies the upload endpoint's file checks (extension, size,
// question count) to a local file, runs the pipeline and writes the quiz
// response to w.
func runGenerate(ctx context.Context, service handlers.QuizService, path string, opts generateOptions, w io.Writer) error {
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return errors.New("only PDF files are allowed")
	}
	if opts.number < 0 {
		return errors.New("invalid number of questions")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if opts.maxBytes > 0 && info.Size() > opts.maxBytes {
		return fmt.Errorf("file too large. Maximum size is %dMB", opts.maxBytes>>20)
	}

	outcome, err := service.GenerateFromFile(ctx, path, opts.number)
	if err != nil {
		return fmt.Errorf("error generating quiz from PDF: %w", err)
	}
	if len(outcome.Questions) == 0 {
		if failed := outcome.FirstProviderFailure(); failed != nil {
			return failed.Err
		}
		return errors.New("no quiz questions could be generated from the PDF content")
	}

	var data []byte
	if opts.pretty {
		data, err = json.MarshalIndent(outcome.Response(filepath.Base(path)), "", "  ")
	} else {
		data, err = json.Marshal(outcome.Response(filepath.Base(path)))
	}
	if err != nil {
		return fmt.Errorf("failed to encode quiz: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
