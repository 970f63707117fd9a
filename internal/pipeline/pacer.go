package pipeline

import (
	"context"
	"time"
)

// Pacer enforces a fixed delay between consecutive upstream calls within
// a stage. The upstream API is rate limited; extraction deliberately
// stays sequential with this pause rather than parallelizing.
type Pacer struct {
	delay time.Duration
	first bool
}

// NewPacer creates a pacer with the given inter-call delay. A zero delay
// disables pacing, which tests rely on.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay, first: true}
}

// Wait blocks for the configured delay before every call except the
// first. Returns early with the context error on cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.first {
		p.first = false
		return nil
	}
	if p.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.delay):
		return nil
	}
}

// Reset makes the next Wait call free again. Each stage starts with a
// fresh window.
func (p *Pacer) Reset() {
	p.first = true
}
