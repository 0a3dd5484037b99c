// Package llm wraps the chat-completion providers used to write quiz
// questions behind a single Completer interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"quizcrafter/internal/config"
)

// Completer sends one prompt to a language model and returns its raw text.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// ErrorKind names the class of a provider failure.
type ErrorKind string

const (
	KindQuota       ErrorKind = "quota"
	KindAuth        ErrorKind = "auth"
	KindTimeout     ErrorKind = "timeout"
	KindUnavailable ErrorKind = "unavailable"
	KindUnknown     ErrorKind = "unknown"
)

// ProviderError is returned for every failure talking to the model provider.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// newProviderError classifies err by HTTP status when the SDK exposes one,
// then by context state, then by well-known message fragments.
func newProviderError(provider string, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: classify(status, err), Err: err}
}

func classify(status int, err error) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindQuota
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindUnavailable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "resource_exhausted"):
		return KindQuota
	case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthenticated"), strings.Contains(msg, "permission_denied"):
		return KindAuth
	case strings.Contains(msg, "deadline"), strings.Contains(msg, "timeout"):
		return KindTimeout
	case strings.Contains(msg, "unavailable"):
		return KindUnavailable
	}
	return KindUnknown
}

// New builds the Completer selected by cfg.Provider, rate limited when
// cfg.LLMRateLimit is set. The returned close function releases the client.
func New(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (Completer, func(), error) {
	var (
		completer Completer
		closeFn   = func() {}
	)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		completer = NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	case config.ProviderGemini:
		client, err := NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		completer = client
		closeFn = client.Close
	default:
		return nil, nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}

	if cfg.LLMRateLimit > 0 {
		completer = NewRateLimited(completer, cfg.LLMRateLimit)
	}

	logger.WithFields(logrus.Fields{
		"provider":   cfg.Provider,
		"rate_limit": cfg.LLMRateLimit,
	}).Info("language model client initialised")

	return completer, closeFn, nil
}
