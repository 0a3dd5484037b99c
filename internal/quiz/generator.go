package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"

	"quizcrafter/internal/llm"
	"quizcrafter/internal/models"
)

// quizPrompt is the prompt used to generate questions for one chunk.
const quizPrompt = `Based on the following text content, generate exactly {{.Count}} multiple-choice quiz questions in JSON format.
Each question should:
1. Test understanding of key concepts from the text
2. Have exactly 4 options with only one correct answer
3. Be clear and unambiguous
4. Cover different aspects of the content

Text content:
{{.Text}}

Return ONLY a valid JSON array in this exact format (no additional text or formatting):
[
  {
    "id": 1,
    "question": "Question text here?",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correctAnswer": 0
  }
]

Important: The correctAnswer should be the index (0-3) of the correct option.
`

var promptTemplate = template.Must(template.New("quiz").Parse(quizPrompt))

// codeFencePattern matches a response wrapped in a Markdown code block.
var codeFencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ChunkGenerator produces the questions for one chunk of text.
type ChunkGenerator interface {
	Generate(ctx context.Context, chunk string, count int) ChunkResult
}

// Generator asks a language model for questions about a chunk of text.
type Generator struct {
	completer   llm.Completer
	temperature float64
	timeout     time.Duration
	logger      logrus.FieldLogger
}

// NewGenerator creates a Generator. A zero timeout leaves calls bounded only
// by ctx.
func NewGenerator(completer llm.Completer, temperature float64, timeout time.Duration, logger logrus.FieldLogger) *Generator {
	return &Generator{
		completer:   completer,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// BuildPrompt renders the prompt for chunk asking for count questions.
func BuildPrompt(chunk string, count int) (string, error) {
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, struct {
		Count int
		Text  string
	}{Count: count, Text: chunk})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// Generate never returns an error: parse failures and provider failures are
// reported through the result's Status.
func (g *Generator) Generate(ctx context.Context, chunk string, count int) ChunkResult {
	prompt, err := BuildPrompt(chunk, count)
	if err != nil {
		return ChunkResult{Status: StatusProviderFailed, Err: err}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	raw, err := g.completer.Complete(ctx, prompt, g.temperature)
	if err != nil {
		var pe *llm.ProviderError
		if !errors.As(err, &pe) {
			err = &llm.ProviderError{Provider: "unknown", Kind: llm.KindUnknown, Err: err}
		}
		return ChunkResult{Status: StatusProviderFailed, Err: err}
	}

	questions, dropped, err := ParseQuestions(raw)
	if err != nil {
		g.logger.WithError(err).Warn("model response is not valid JSON")
		return ChunkResult{Status: StatusParseFailed, Err: err}
	}
	if dropped > 0 {
		g.logger.WithField("dropped", dropped).Warn("skipping invalid questions from model")
	}
	return ChunkResult{Status: StatusOK, Questions: questions}
}

// ParseQuestions decodes a model response. It returns an error only when the
// text is not JSON. JSON that is not an array yields no questions. Array
// elements that are not well-formed questions are dropped and counted.
func ParseQuestions(raw string) ([]models.Question, int, error) {
	text := strings.TrimSpace(raw)
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var doc json.RawMessage
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, 0, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if len(doc) == 0 || doc[0] != '[' {
		return nil, 0, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(doc, &elements); err != nil {
		return nil, 0, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	questions := make([]models.Question, 0, len(elements))
	dropped := 0
	for _, el := range elements {
		var q models.Question
		if err := json.Unmarshal(el, &q); err != nil || !q.Valid() {
			dropped++
			continue
		}
		questions = append(questions, q)
	}
	return questions, dropped, nil
}
