package quiz

import (
	"errors"

	"quizcrafter/internal/llm"
	"quizcrafter/internal/models"
)

// Status tags the outcome of generating questions for one chunk.
type Status int

const (
	// StatusOK means the model answered with JSON; Questions may still be empty.
	StatusOK Status = iota
	// StatusParseFailed means the model's answer was not valid JSON.
	StatusParseFailed
	// StatusProviderFailed means the call to the model provider failed.
	StatusProviderFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusParseFailed:
		return "parse_failed"
	case StatusProviderFailed:
		return "provider_failed"
	default:
		return "unknown"
	}
}

// ChunkResult is what one chunk produced. Err is set for the failed statuses.
type ChunkResult struct {
	Index     int
	Status    Status
	Questions []models.Question
	Err       error
}

// Failed reports whether the chunk ended in an error.
func (r ChunkResult) Failed() bool {
	return r.Status != StatusOK
}

// Failure renders a failed result for the API response. kind is the
// provider error kind when there is one, otherwise the status name.
func (r ChunkResult) Failure() models.ChunkFailure {
	kind := r.Status.String()
	var pe *llm.ProviderError
	if errors.As(r.Err, &pe) {
		kind = string(pe.Kind)
	}

	msg := ""
	if r.Err != nil {
		msg = r.Err.Error()
	}
	return models.ChunkFailure{
		Chunk: r.Index + 1,
		Kind:  kind,
		Error: msg,
	}
}

// Renumber flattens the successful results in chunk order and assigns ids
// 1..n, discarding whatever ids the model produced.
func Renumber(results []ChunkResult) []models.Question {
	questions := make([]models.Question, 0)
	for _, r := range results {
		if r.Status != StatusOK {
			continue
		}
		for _, q := range r.Questions {
			q.ID = len(questions) + 1
			questions = append(questions, q)
		}
	}
	return questions
}
