package throttle

import (
	"context"
	"fmt"
	"time"

	"crypverify-go/internal/metrics"

	"golang.org/x/time/rate"
)

// ProviderLimiter paces outbound calls to one upstream provider with a token bucket
type ProviderLimiter struct {
	limiter  *rate.Limiter
	provider string
}

// NewProviderLimiter allows rps calls per second with the given burst.
// A non-positive rps disables pacing.
func NewProviderLimiter(rps float64, burst int, provider string) *ProviderLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &ProviderLimiter{
		limiter:  rate.NewLimiter(limit, burst),
		provider: provider,
	}
}

// Wait blocks until one call is allowed, or ctx is done.
// Reserve guarantees exactly one token is consumed per call.
func (l *ProviderLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	r := l.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate: cannot reserve token")
	}
	delay := r.Delay()
	if delay > 0 {
		metrics.ProviderWaits.WithLabelValues(l.provider).Inc()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}
