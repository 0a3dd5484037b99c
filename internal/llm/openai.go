package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerOpenAI = "openai"

// OpenAI is a Completer backed by the OpenAI chat completions API or any
// server compatible with it.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI completer. baseURL may be empty. The SDK's
// automatic retries are disabled; a failed call is reported as is.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAI{
		client: &client,
		model:  model,
	}
}

// Complete sends prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", newProviderError(providerOpenAI, apiErr.StatusCode, err)
		}
		return "", newProviderError(providerOpenAI, 0, err)
	}

	if len(resp.Choices) == 0 {
		return "", newProviderError(providerOpenAI, 0, errors.New("no response choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}
