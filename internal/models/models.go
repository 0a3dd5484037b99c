package models

import "strings"

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// Question is one multiple-choice question as returned to the quiz UI.
type Question struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Valid reports whether q can be shown as a flashcard: non-empty text,
// exactly four non-empty options and a correct index pointing at one of them.
func (q Question) Valid() bool {
	if strings.TrimSpace(q.Question) == "" || len(q.Options) != OptionCount {
		return false
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return false
		}
	}
	return q.CorrectAnswer >= 0 && q.CorrectAnswer < OptionCount
}

// ChunkFailure describes a chunk that produced no questions.
type ChunkFailure struct {
	Chunk int    `json:"chunk"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// QuizResponse represents the response for the quiz generation endpoint
type QuizResponse struct {
	Message        string         `json:"message"`
	Filename       string         `json:"filename"`
	TotalQuestions int            `json:"totalQuestions"`
	Quiz           []Question     `json:"quiz"`
	Failures       []ChunkFailure `json:"failures,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
