package worker

import (
	"golang.org/x/time/rate"
)

// ProgressLimiter throttles per-file progress output in batch mode so that
// very large batches do not flood the terminal.
type ProgressLimiter struct {
	limiter *rate.Limiter
}

// NewProgressLimiter allows eventsPerSecond progress lines with the given
// burst.
func NewProgressLimiter(eventsPerSecond float64, burst int) *ProgressLimiter {
	if eventsPerSecond <= 0 {
		eventsPerSecond = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &ProgressLimiter{limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), burst)}
}

// Allow reports whether one more progress line may be emitted now.
func (l *ProgressLimiter) Allow() bool {
	return l.limiter.Allow()
}
