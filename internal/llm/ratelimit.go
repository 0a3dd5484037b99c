package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped Completer.
type RateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls per second with a burst of 1.
func NewRateLimited(next Completer, perSecond float64) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Complete waits for a token before delegating. Waiting fails once ctx ends.
func (r *RateLimited) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{Provider: "ratelimit", Kind: KindTimeout, Err: fmt.Errorf("waiting for rate limiter: %w", err)}
	}
	return r.next.Complete(ctx, prompt, temperature)
}
