package provider

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiters is a per-provider token-bucket rate limiter registry, built on
// golang.org/x/time/rate rather than a hand-rolled bucket.
type Limiters struct {
	mu sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLimiters() *Limiters {
	return &Limiters{limiters: make(map[string]*rate.Limiter)}
}

func (l *Limiters) get(provider string, rps float64, burst int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[provider]; ok {
 return lim
	}
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	l.limiters[provider] = lim
	return lim
}

// Wait blocks until a token is available or ctx is done, so every adapter
// respects its per-provider rate budget before issuing upstream I/O.
func (l *Limiters) Wait(ctx context.Context, provider string, rps float64, burst int) error {
	return l.get(provider, rps, burst).Wait(ctx)
}
