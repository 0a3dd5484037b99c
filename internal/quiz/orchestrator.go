package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Orchestrator drives chunks through a ChunkGenerator in fixed-size batches.
// Calls inside a batch run concurrently; batches run one after another with
// a pause in between to ease pressure on the provider's rate limits.
type Orchestrator struct {
	gen       ChunkGenerator
	batchSize int
	delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	logger    logrus.FieldLogger
}

// NewOrchestrator creates an Orchestrator. batchSize below 1 is treated as 1.
func NewOrchestrator(gen ChunkGenerator, batchSize int, delay time.Duration, logger logrus.FieldLogger) *Orchestrator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Orchestrator{
		gen:       gen,
		batchSize: batchSize,
		delay:     delay,
		sleep:     sleepContext,
		logger:    logger,
	}
}

// Run returns one result per chunk, in chunk order. It never retries and
// never aborts early because of a failed chunk.
func (o *Orchestrator) Run(ctx context.Context, chunks []string, count int) []ChunkResult {
	results := make([]ChunkResult, len(chunks))

	for start := 0; start < len(chunks); start += o.batchSize {
		end := min(start+o.batchSize, len(chunks))
		batch := start/o.batchSize + 1

		o.logger.WithFields(logrus.Fields{
			"batch":  batch,
			"chunks": fmt.Sprintf("%d-%d/%d", start+1, end, len(chunks)),
		}).Info("processing batch")

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = o.generate(ctx, i, chunks[i], count)
			}(i)
		}
		wg.Wait()

		if end < len(chunks) && o.delay > 0 {
			if err := o.sleep(ctx, o.delay); err != nil {
				for i := end; i < len(chunks); i++ {
					results[i] = ChunkResult{Index: i, Status: StatusProviderFailed, Err: fmt.Errorf("chunk skipped: %w", err)}
				}
				o.logger.WithError(err).Warn("stopping before remaining batches")
				return results
			}
		}
	}
	return results
}

func (o *Orchestrator) generate(ctx context.Context, index int, chunk string, count int) (result ChunkResult) {
	log := o.logger.WithField("chunk", index+1)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = ChunkResult{Status: StatusProviderFailed, Err: fmt.Errorf("generator panic: %v", r)}
		}
		result.Index = index

		entry := log.WithFields(logrus.Fields{
			"status":      result.Status.String(),
			"questions":   len(result.Questions),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if result.Err != nil {
			entry.WithError(result.Err).Warn("chunk failed")
			return
		}
		entry.Info("chunk processed")
	}()

	return o.gen.Generate(ctx, chunk, count)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
