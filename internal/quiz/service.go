package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"quizcrafter/internal/chunker"
	"quizcrafter/internal/config"
	"quizcrafter/internal/models"
	"quizcrafter/internal/pdf"
)

// maxQuestionsPerChunk caps what a single prompt may ask for.
const maxQuestionsPerChunk = 10

// ErrNoUsableText is returned when no chunk of the document is long enough
// to write questions about.
var ErrNoUsableText = errors.New("document has no chunk long enough to generate questions from")

// Outcome is the aggregate of one pipeline run.
type Outcome struct {
	Questions []models.Question
	Results   []ChunkResult
}

// Failures lists every failed chunk in chunk order.
func (o *Outcome) Failures() []models.ChunkFailure {
	var failures []models.ChunkFailure
	for _, r := range o.Results {
		if r.Failed() {
			failures = append(failures, r.Failure())
		}
	}
	return failures
}

// FirstProviderFailure returns the first chunk that failed talking to the
// provider, or nil.
func (o *Outcome) FirstProviderFailure() *ChunkResult {
	for i := range o.Results {
		if o.Results[i].Status == StatusProviderFailed {
			return &o.Results[i]
		}
	}
	return nil
}

// Service runs the extraction, chunking and generation pipeline.
type Service struct {
	extractor         pdf.Extractor
	splitter          *chunker.Splitter
	orchestrator      *Orchestrator
	minChunkLength    int
	maxChunks         int
	questionsPerChunk int
	maxQuestions      int
	logger            logrus.FieldLogger
}

// NewService wires a Service from configuration.
func NewService(cfg *config.Config, extractor pdf.Extractor, gen ChunkGenerator, logger logrus.FieldLogger) *Service {
	return &Service{
		extractor:         extractor,
		splitter:          chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		orchestrator:      NewOrchestrator(gen, cfg.BatchSize, cfg.BatchDelay, logger),
		minChunkLength:    cfg.MinChunkLength,
		maxChunks:         cfg.MaxChunks,
		questionsPerChunk: cfg.QuestionsPerChunk,
		maxQuestions:      cfg.MaxQuestions,
		logger:            logger,
	}
}

// GenerateFromFile extracts the text of the PDF at path and generates a quiz
// from it. number is the desired total number of questions; 0 uses the
// configured per-chunk count. Extraction failures are returned as
// *pdf.ExtractionError.
func (s *Service) GenerateFromFile(ctx context.Context, path string, number int) (*Outcome, error) {
	text, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.GenerateFromText(ctx, text, number)
}

// GenerateFromText is GenerateFromFile for already extracted text.
func (s *Service) GenerateFromText(ctx context.Context, text string, number int) (*Outcome, error) {
	start := time.Now()

	all, err := s.splitter.Split(text)
	if err != nil {
		return nil, err
	}
	chunks := chunker.Select(all, s.minChunkLength, s.maxChunks)

	s.logger.WithFields(logrus.Fields{
		"text_length": len(text),
		"chunks":      len(all),
		"selected":    len(chunks),
	}).Info("split document text")

	if len(chunks) == 0 {
		return nil, ErrNoUsableText
	}

	if number > s.maxQuestions {
		number = s.maxQuestions
	}
	perChunk := s.perChunk(number, len(chunks))

	results := s.orchestrator.Run(ctx, chunks, perChunk)
	questions := Renumber(results)
	if number > 0 && len(questions) > number {
		questions = questions[:number]
	}

	s.logger.WithFields(logrus.Fields{
		"questions":   len(questions),
		"per_chunk":   perChunk,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("quiz generation finished")

	return &Outcome{Questions: questions, Results: results}, nil
}

// perChunk spreads number across chunks, rounding up so the total can be met.
func (s *Service) perChunk(number, chunks int) int {
	if number <= 0 {
		return s.questionsPerChunk
	}
	n := (number + chunks - 1) / chunks
	return max(1, min(n, maxQuestionsPerChunk))
}

// String is used in log lines.
func (o *Outcome) String() string {
	return fmt.Sprintf("%d questions from %d chunks (%d failed)", len(o.Questions), len(o.Results), len(o.Failures()))
}

// Response builds the JSON body returned for a successful run.
func (o *Outcome) Response(filename string) models.QuizResponse {
	return models.QuizResponse{
		Message:        "Quiz generated successfully",
		Filename:       filename,
		TotalQuestions: len(o.Questions),
		Quiz:           o.Questions,
		Failures:       o.Failures(),
	}
}
