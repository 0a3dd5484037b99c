package chunker

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%03d", i)
	}
	return strings.Join(parts, " ")
}

func split(t *testing.T, s *Splitter, text string) []string {
	t.Helper()
	chunks, err := s.Split(text)
	require.NoError(t, err)
	return chunks
}

func TestSplitEmpty(t *testing.T) {
	assert.Empty(t, split(t, New(2000, 200), ""))
	assert.Empty(t, split(t, New(2000, 200), "   \n\n  "))
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	text := "  A short paragraph.\n\nAnother one.  "
	chunks := split(t, New(2000, 200), text)
	require.Len(t, chunks, 1)
	assert.Equal(t, strings.TrimSpace(text), chunks[0])
}

func TestSplitPrefersParagraphs(t *testing.T) {
	p1 := strings.Repeat("a", 150)
	p2 := strings.Repeat("b", 150)

	chunks := split(t, New(200, 0), p1+"\n\n"+p2)
	assert.Equal(t, []string{p1, p2}, chunks)
}

func TestSplitWordsWithOverlap(t *testing.T) {
	text := words(200)
	chunks := split(t, New(100, 20), text)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 100, "chunk %d too long", i)
		assert.Contains(t, text, chunk, "chunk %d is not a substring of the input", i)
	}
	for i := 1; i < len(chunks); i++ {
		first := strings.Fields(chunks[i])[0]
		assert.Contains(t, chunks[i-1], first, "chunk %d does not overlap chunk %d", i, i-1)
	}

	assert.True(t, strings.HasPrefix(chunks[0], "w000"))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "w199"))
}

func TestSplitKeepsSentenceSeparatorWithFollowingPiece(t *testing.T) {
	chunks := split(t, New(10, 3), "aaaa. bbbb. cccc")
	assert.Equal(t, []string{"aaaa. bbbb", ". cccc"}, chunks)
}

func TestSplitWindowsStayWithinSizeAndInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	fragments := []string{"\n\n", "\n", ". ", " ", "é", "word", "Sentence", strings.Repeat("z", 70)}

	for i := 0; i < 100; i++ {
		var b strings.Builder
		for j := 0; j < 40+rng.Intn(200); j++ {
			b.WriteString(fragments[rng.Intn(len(fragments))])
		}
		text := b.String()

		for _, chunk := range split(t, New(50, 10), text) {
			assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 50, "text %d", i)
			assert.Contains(t, text, chunk, "text %d", i)
			assert.Equal(t, strings.TrimSpace(chunk), chunk)
		}
	}
}

func TestSplitForcesCharacterSplit(t *testing.T) {
	text := strings.Repeat("x", 4500)
	chunks := split(t, New(2000, 200), text)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2000)
	assert.Len(t, chunks[1], 2000)
	assert.Len(t, chunks[2], 900)
}

func TestSplitRecursesIntoLongParagraph(t *testing.T) {
	long := words(120) // 599 characters, no newlines
	text := "Intro line.\n\n" + long + "\n\nOutro line."

	chunks := split(t, New(300, 30), text)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 300)
	}
	assert.Equal(t, "Intro line.", chunks[0])
	assert.Equal(t, "Outro line.", chunks[len(chunks)-1])
}

func TestSplitCountsRunes(t *testing.T) {
	text := strings.Repeat("é", 250)
	chunks := split(t, New(100, 10), text)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 100)
		assert.True(t, utf8.ValidString(chunk))
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	text := strings.Repeat("Sentence one. Sentence two is longer.\nA new line here. ", 200)
	s := New(2000, 200)
	assert.Equal(t, split(t, s, text), split(t, s, text))
}

func TestSelect(t *testing.T) {
	long := strings.Repeat("y", 200)
	short := "  " + strings.Repeat("z", 199) + "  "

	chunks := []string{short, long + "1", long + "2", short, long + "3", long + "4", long + "5", long + "6"}
	selected := Select(chunks, 200, 5)

	assert.Equal(t, []string{long + "1", long + "2", long + "3", long + "4", long + "5"}, selected)
}

func TestSelectNothingQualifies(t *testing.T) {
	assert.Empty(t, Select([]string{"tiny", "small"}, 200, 5))
}

func TestLongTextYieldsSelectableChunks(t *testing.T) {
	for _, n := range []int{50, 400, 3000} {
		text := words(n)
		if utf8.RuneCountInString(text) < 200 {
			continue
		}
		selected := Select(split(t, New(2000, 200), text), 200, 5)
		assert.GreaterOrEqual(t, len(selected), 1, "n=%d", n)
		assert.LessOrEqual(t, len(selected), 5, "n=%d", n)
	}
}
