// Package chunker splits extracted document text into overlapping windows
// small enough to send to a language model in one prompt.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// DefaultSeparators are tried in order: paragraphs, lines, sentences, words
// and finally single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts text into windows of at most Size characters, each sharing up
// to Overlap characters with the previous window. Lengths are counted in
// Unicode code points. Separators stay attached to the start of the piece
// that follows them.
type Splitter struct {
	Size     int
	Overlap  int
	splitter textsplitter.RecursiveCharacter
}

// New returns a Splitter using DefaultSeparators.
func New(size, overlap int) *Splitter {
	return &Splitter{
		Size:    size,
		Overlap: overlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(DefaultSeparators),
			textsplitter.WithKeepSeparator(true),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		),
	}
}

// Split returns the trimmed, non-empty windows of text in document order.
func (s *Splitter) Split(text string) ([]string, error) {
	pieces, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	chunks := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if trimmed := strings.TrimSpace(piece); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks, nil
}

// Select keeps the chunks whose trimmed length is at least minLen and returns
// at most max of them, in their original order.
func Select(chunks []string, minLen, max int) []string {
	selected := make([]string, 0, max)
	for _, chunk := range chunks {
		if len(selected) == max {
			break
		}
		if length(strings.TrimSpace(chunk)) >= minLen {
			selected = append(selected, chunk)
		}
	}
	return selected
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
