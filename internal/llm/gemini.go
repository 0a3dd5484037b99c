package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const providerGemini = "gemini"

// Gemini wraps the Gemini client
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini creates a new Gemini client
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		client:    client,
		modelName: modelName,
	}, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() {
	g.client.Close()
}

// Complete asks the model for a JSON response. A fresh GenerativeModel is
// built per call so concurrent calls never share generation settings.
func (g *Gemini) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(float32(temperature))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", newProviderError(providerGemini, apiErr.Code, err)
		}
		return "", newProviderError(providerGemini, 0, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", newProviderError(providerGemini, 0, errors.New("no content generated"))
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}
