// Package breaker is the per-provider circuit breaker registry. It wraps
// sony/gobreaker, one named breaker per provider tag, closed/open/half-open,
// with failure defined as network/timeout/5xx/429 (never a plain 4xx).
package breaker

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/hanlulong/openecon-data-sub002/internal/metrics"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// Config mirrors named thresholds.
type Config struct {
	FailureThreshold uint32 // consecutive failures before opening (ReadyToTrip)
	MinRequests uint32 // minimum requests in the rolling window before tripping
	RecoveryTimeout time.Duration // open -> half-open
	SuccessThreshold uint32 // half-open successes required to close
	WindowSize time.Duration // rolling window for the closed-state counts
}

func DefaultConfig() Config {
	return Config{
 FailureThreshold: 5,
 MinRequests: 10,
 RecoveryTimeout: 30 * time.Second,
 SuccessThreshold: 2,
 WindowSize: 60 * time.Second,
	}
}

// Registry owns one gobreaker.CircuitBreaker per provider tag.
type Registry struct {
	mu sync.RWMutex
	cfg Config
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (r *Registry) get(provider string) *gobreaker.CircuitBreaker {
	r.mu.RLock()
	b, ok := r.breakers[provider]
	r.mu.RUnlock()
	if ok {
 return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[provider]; ok {
 return b
	}

	settings := gobreaker.Settings{
 Name: provider,
 MaxRequests: r.cfg.SuccessThreshold,
 Interval: r.cfg.WindowSize,
 Timeout: r.cfg.RecoveryTimeout,
 ReadyToTrip: func(counts gobreaker.Counts) bool {
 if counts.Requests < r.cfg.MinRequests {
 return false
 }
 return counts.ConsecutiveFailures >= r.cfg.FailureThreshold
 },
 OnStateChange: func(name string, from, to gobreaker.State) {
 log.Info().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
 metrics.BreakerState.WithLabelValues(name).Set(metrics.BreakerStateValue(stateString(to)))
 },
 // A plain 4xx client error is real information, not upstream
 // unavailability, so it never trips the breaker.
 IsSuccessful: func(err error) bool {
 return err == nil || !IsFailure(err)
 },
	}
	b = gobreaker.NewCircuitBreaker(settings)
	r.breakers[provider] = b
	return b
}

// IsFailure classifies a QueryError as circuit-breaking:
// network/timeout/5xx/429 trip the breaker; plain 4xx client errors do not.
func IsFailure(err error) bool {
	qe, ok := err.(*model.QueryError)
	if !ok {
 return err != nil
	}
	switch qe.Kind {
	case model.ErrKindUpstream:
 // Temporary is set for network errors and for 5xx/429 statuses only.
 return qe.Temporary
	case model.ErrKindTimeout, model.ErrKindRateLimit:
 return true
	default:
 return false
	}
}

// Call executes fn through the named provider's breaker. A rejection
// (circuit open) never performs upstream I/O. Adapters report their
// result through a closure variable rather than Call's return value,
// since every adapter already needs a typed *model.NormalizedSeries
// rather than interface{}.
func (r *Registry) Call(provider string, fn func() error) error {
	b := r.get(provider)
	_, err := b.Execute(func() (interface{}, error) { return nil, fn() })
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
 return model.NewCircuitOpenError(provider)
	}
	return err
}

// State reports the current breaker state for a provider, used by the
// router's breaker-skip rule in router.Chain.
func (r *Registry) State(provider string) string {
	r.mu.RLock()
	b, ok := r.breakers[provider]
	r.mu.RUnlock()
	if !ok {
 return "closed"
	}
	return stateString(b.State())
}

func stateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateOpen:
 return "open"
	case gobreaker.StateHalfOpen:
 return "half_open"
	default:
 return "closed"
	}
}

// AllStates snapshots every known breaker, for the health endpoint.
func (r *Registry) AllStates() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.breakers))
	for name, b := range r.breakers {
 switch b.State() {
 case gobreaker.StateOpen:
 out[name] = "open"
 case gobreaker.StateHalfOpen:
 out[name] = "half_open"
 default:
 out[name] = "closed"
 }
	}
	return out
}

// ForceOpen is used by tests to exercise the fallback chain without waiting out real failures.
func (r *Registry) ForceOpen(provider string) {
	b := r.get(provider)
	for b.State() != gobreaker.StateOpen {
 _, _ = b.Execute(func() (interface{}, error) { return nil, errForced })
	}
}

var errForced = forcedErr{}

type forcedErr struct{}

func (forcedErr) Error() string { return "forced failure" }
