package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizcrafter/internal/llm"
	"quizcrafter/internal/logging"
	"quizcrafter/internal/models"
)

// fakeGenerator answers by chunk text: "fail:<kind>" fails with a provider
// error, "parse" fails to parse, "panic" panics, "empty" returns nothing and
// anything else returns count questions numbered from 1.
type fakeGenerator struct {
	mu       sync.Mutex
	calls    []string
	inFlight atomic.Int32
	peak     atomic.Int32
	hold     time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, chunk string, count int) ChunkResult {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, chunk)
	f.mu.Unlock()

	if f.hold > 0 {
		time.Sleep(f.hold)
	}

	switch {
	case strings.HasPrefix(chunk, "fail:"):
		kind := llm.ErrorKind(strings.TrimPrefix(chunk, "fail:"))
		return ChunkResult{Status: StatusProviderFailed, Err: &llm.ProviderError{Provider: "fake", Kind: kind, Err: errors.New("provider said no")}}
	case chunk == "parse":
		return ChunkResult{Status: StatusParseFailed, Err: errors.New("failed to parse JSON response: invalid character")}
	case chunk == "panic":
		panic("generator exploded")
	case chunk == "empty":
		return ChunkResult{Status: StatusOK}
	}

	questions := make([]models.Question, count)
	for i := range questions {
		questions[i] = models.Question{
			ID:            i + 1,
			Question:      fmt.Sprintf("%s question %d?", chunk, i+1),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
		}
	}
	return ChunkResult{Status: StatusOK, Questions: questions}
}

type recordingSleeper struct {
	calls []time.Duration
	err   error
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return r.err
}

func newTestOrchestrator(gen ChunkGenerator, batchSize int, sleeper *recordingSleeper) *Orchestrator {
	o := NewOrchestrator(gen, batchSize, 500*time.Millisecond, logging.Discard())
	o.sleep = sleeper.sleep
	return o
}

func TestRunPreservesOrderAndPacesBatches(t *testing.T) {
	gen := &fakeGenerator{}
	sleeper := &recordingSleeper{}
	o := newTestOrchestrator(gen, 2, sleeper)

	chunks := []string{"c1", "c2", "c3", "c4", "c5"}
	results := o.Run(context.Background(), chunks, 3)

	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, StatusOK, r.Status)
		require.Len(t, r.Questions, 3)
		assert.True(t, strings.HasPrefix(r.Questions[0].Question, chunks[i]))
	}

	// three batches, two pauses, none after the last batch
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, sleeper.calls)
}

func TestRunSingleBatchDoesNotSleep(t *testing.T) {
	sleeper := &recordingSleeper{}
	o := newTestOrchestrator(&fakeGenerator{}, 2, sleeper)

	o.Run(context.Background(), []string{"c1", "c2"}, 3)

	assert.Empty(t, sleeper.calls)
}

func TestRunBoundsConcurrency(t *testing.T) {
	gen := &fakeGenerator{hold: 20 * time.Millisecond}
	o := newTestOrchestrator(gen, 2, &recordingSleeper{})

	o.Run(context.Background(), []string{"c1", "c2", "c3", "c4", "c5"}, 1)

	assert.Equal(t, int32(2), gen.peak.Load())
	assert.Len(t, gen.calls, 5)
}

func TestRunBatchesAreSequential(t *testing.T) {
	gen := &fakeGenerator{hold: 10 * time.Millisecond}
	o := newTestOrchestrator(gen, 2, &recordingSleeper{})

	o.Run(context.Background(), []string{"c1", "c2", "c3", "c4"}, 1)

	require.Len(t, gen.calls, 4)
	assert.ElementsMatch(t, []string{"c1", "c2"}, gen.calls[:2])
	assert.ElementsMatch(t, []string{"c3", "c4"}, gen.calls[2:])
}

func TestRunIsolatesFailures(t *testing.T) {
	o := newTestOrchestrator(&fakeGenerator{}, 2, &recordingSleeper{})

	results := o.Run(context.Background(), []string{"fail:quota", "c2", "parse", "panic", "c5"}, 2)

	require.Len(t, results, 5)
	assert.Equal(t, StatusProviderFailed, results[0].Status)
	assert.Equal(t, StatusOK, results[1].Status)
	assert.Equal(t, StatusParseFailed, results[2].Status)
	assert.Equal(t, StatusProviderFailed, results[3].Status)
	assert.Contains(t, results[3].Err.Error(), "generator exploded")
	assert.Equal(t, 3, results[3].Index)
	assert.Equal(t, StatusOK, results[4].Status)

	questions := Renumber(results)
	assert.Len(t, questions, 4)
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	sleeper := &recordingSleeper{err: context.Canceled}
	gen := &fakeGenerator{}
	o := newTestOrchestrator(gen, 2, sleeper)

	results := o.Run(context.Background(), []string{"c1", "c2", "c3"}, 1)

	assert.Len(t, gen.calls, 2)
	require.Len(t, results, 3)
	assert.Equal(t, StatusProviderFailed, results[2].Status)
	assert.ErrorIs(t, results[2].Err, context.Canceled)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestRenumber(t *testing.T) {
	q := func(id int) models.Question {
		return models.Question{ID: id, Question: "Q?", Options: []string{"a", "b", "c", "d"}}
	}
	results := []ChunkResult{
		{Index: 0, Status: StatusOK, Questions: []models.Question{q(1), q(2), q(3)}},
		{Index: 1, Status: StatusParseFailed, Err: errors.New("bad json")},
		{Index: 2, Status: StatusOK},
		{Index: 3, Status: StatusOK, Questions: []models.Question{q(1), q(1), q(7)}},
	}

	questions := Renumber(results)

	require.Len(t, questions, 6)
	for i, question := range questions {
		assert.Equal(t, i+1, question.ID)
	}
	assert.Equal(t, 1, results[3].Questions[0].ID, "input results must not be modified")
}

func TestRenumberNothing(t *testing.T) {
	questions := Renumber(nil)
	assert.NotNil(t, questions)
	assert.Empty(t, questions)
}
