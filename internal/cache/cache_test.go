package cache

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_TTLBoundary(t *testing.T) {
	c := New(100, 0)
	defer c.Close()

	const ttl = 40 * time.Millisecond
	c.Set("fp", "value", ttl, 16)

	// A get strictly inside [t0, t0+ttl) must hit.
	entry, hit := c.Get("fp")
	require.True(t, hit)
	assert.Equal(t, "value", entry.Result)

	// A get at or past t0+ttl must miss, even though the janitor sweep
	// hasn't run (sweepInterval is 0, disabling the background sweep).
	time.Sleep(ttl + 20*time.Millisecond)
	_, hit = c.Get("fp")
	assert.False(t, hit, "expected entry to have expired")
}

func TestCache_GetOrCompute_SingleFlight(t *testing.T) {
	c := New(100, 0)
	defer c.Close()

	var calls int64
	producer := func() (interface{}, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(30 * time.Millisecond)
		return "computed", nil
	}

	const concurrency = 20
	results := make(chan interface{}, concurrency)
	done := make(chan struct{})
	for i := 0; i < concurrency; i++ {
		go func() {
			v, _, err := c.GetOrCompute("same-fingerprint", time.Minute, 16, producer)
			require.NoError(t, err)
			results <- v
			if len(results) == concurrency {
				close(done)
			}
		}()
	}
	<-done

	for i := 0; i < concurrency; i++ {
		assert.Equal(t, "computed", <-results)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "producer must run exactly once for identical fingerprints in flight")
}

func TestCache_GetOrCompute_CacheHitSkipsProducer(t *testing.T) {
	c := New(100, 0)
	defer c.Close()

	var calls int64
	producer := func() (interface{}, error) {
		atomic.AddInt64(&calls, 1)
		return "v", nil
	}

	_, hit, err := c.GetOrCompute("fp", time.Minute, 16, producer)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = c.GetOrCompute("fp", time.Minute, 16, producer)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestCache_LRUEviction(t *testing.T) {
	c := New(2, 0)
	defer c.Close()

	c.Set("a", 1, time.Minute, 1)
	c.Set("b", 2, time.Minute, 1)
	c.Set("c", 2, time.Minute, 1) // evicts "a", the least recently used

	_, hit := c.Get("a")
	assert.False(t, hit)
	_, hit = c.Get("b")
	assert.True(t, hit)
	_, hit = c.Get("c")
	assert.True(t, hit)
}
