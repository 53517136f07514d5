package model

import (
	"fmt"
	"time"
)

// ErrorKind is the closed set of failure categories the query pipeline can
// report. The inbound HTTP layer maps each kind to a status code; nothing
// else should invent new kinds.
type ErrorKind string

const (
	ErrKindClient ErrorKind = "client" // 400
	ErrKindIntent ErrorKind = "intent" // 503
	ErrKindResolution ErrorKind = "resolution" // 404
	ErrKindUpstream ErrorKind = "upstream" // 502
	ErrKindTimeout ErrorKind = "timeout" // 504
	ErrKindInternal ErrorKind = "internal" // 500
	ErrKindCircuitOpen ErrorKind = "circuit_open" // 502 (surfaced via upstream once chain exhausted)
	ErrKindRateLimit ErrorKind = "rate_limit" // 502 (recovered via retry-after, else upstream)
	ErrKindNotAvailable ErrorKind = "not_available" // 404 (resolution)
	ErrKindUnknown ErrorKind = "unknown_indicator" // 404 (resolution)
)

// QueryError is the single error type adapters, the router, and the
// orchestrator convert every failure mode into: provider, a closed-set
// kind, a message, and whether the fallback chain should treat it as
// temporary and try the next link.
type QueryError struct {
	Kind ErrorKind
	Provider string
	Message string
	Suggestion []string // nearest-candidate hint for resolution errors
	RetryAfter time.Duration
	Temporary bool
	Cause error
}

func (e *QueryError) Error() string {
	if e.Provider != "" {
 return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

func (e *QueryError) Unwrap() error { return e.Cause }

// IsTemporary reports whether the fallback chain should try the next link.
func (e *QueryError) IsTemporary() bool {
	switch e.Kind {
	case ErrKindNotAvailable, ErrKindUnknown, ErrKindRateLimit, ErrKindUpstream, ErrKindTimeout, ErrKindCircuitOpen:
 return true
	default:
 return e.Temporary
	}
}

func NewDataNotAvailable(provider, msg string) *QueryError {
	return &QueryError{Kind: ErrKindNotAvailable, Provider: provider, Message: msg, Temporary: true}
}

func NewIndicatorUnknown(provider, msg string) *QueryError {
	return &QueryError{Kind: ErrKindUnknown, Provider: provider, Message: msg, Temporary: true}
}

func NewUpstreamError(provider string, status int, body string) *QueryError {
	return &QueryError{
 Kind: ErrKindUpstream,
 Provider: provider,
 Message: fmt.Sprintf("upstream status %d: %s", status, body),
 Temporary: status >= 500 || status == 429,
	}
}

func NewRateLimitError(provider string, retryAfter time.Duration) *QueryError {
	return &QueryError{Kind: ErrKindRateLimit, Provider: provider, Message: "rate limited", RetryAfter: retryAfter, Temporary: true}
}

func NewTimeoutError(provider string) *QueryError {
	return &QueryError{Kind: ErrKindTimeout, Provider: provider, Message: "request deadline exceeded", Temporary: true}
}

func NewNetworkError(provider string, cause error) *QueryError {
	return &QueryError{Kind: ErrKindUpstream, Provider: provider, Message: "network error", Temporary: true, Cause: cause}
}

func NewCircuitOpenError(provider string) *QueryError {
	return &QueryError{Kind: ErrKindCircuitOpen, Provider: provider, Message: "circuit breaker open", Temporary: true}
}
