package breaker

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

func TestRegistry_ForceOpen_RejectsWithoutCallingFn(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	r.ForceOpen("fred")
	require.Equal(t, "open", r.State("fred"))

	var calls int64
	err := r.Call("fred", func() error {
		atomic.AddInt64(&calls, 1)
		return nil
	})

	require.Error(t, err)
	qe, ok := err.(*model.QueryError)
	require.True(t, ok)
	assert.Equal(t, model.ErrKindCircuitOpen, qe.Kind)
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls), "a rejected call must perform no upstream I/O")
}

func TestRegistry_OpensAfterConsecutiveFailures(t *testing.T) {
	cfg := Config{
		FailureThreshold: 3,
		MinRequests: 3,
		RecoveryTimeout: time.Minute,
		SuccessThreshold: 1,
		WindowSize: time.Minute,
	}
	r := NewRegistry(cfg)

	for i := 0; i < 3; i++ {
		_ = r.Call("eurostat", func() error {
			return model.NewUpstreamError("eurostat", 503, "down")
		})
	}
	assert.Equal(t, "open", r.State("eurostat"))
}

func TestRegistry_ClientErrorsNeverTripBreaker(t *testing.T) {
	cfg := Config{
		FailureThreshold: 2,
		MinRequests: 2,
		RecoveryTimeout: time.Minute,
		SuccessThreshold: 1,
		WindowSize: time.Minute,
	}
	r := NewRegistry(cfg)

	for i := 0; i < 10; i++ {
		_ = r.Call("oecd", func() error {
			return model.NewIndicatorUnknown("oecd", "not in catalog")
		})
	}
	assert.Equal(t, "closed", r.State("oecd"), "plain resolution errors are information, not upstream unavailability")
}

func TestIsFailure(t *testing.T) {
	cases := []struct {
		name string
		err error
		want bool
	}{
		{"upstream 5xx", model.NewUpstreamError("p", 503, ""), true},
		{"rate limited", model.NewRateLimitError("p", time.Second), true},
		{"timeout", model.NewTimeoutError("p"), true},
		{"unknown indicator", model.NewIndicatorUnknown("p", ""), false},
		{"data not available", model.NewDataNotAvailable("p", ""), false},
		{"plain error", errors.New("boom"), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsFailure(c.err))
		})
	}
}
