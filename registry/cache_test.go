package registry

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRegistry struct {
	values map[string]string
	calls  int32
}

func (c *countingRegistry) Get(_ context.Context, key string) (string, bool) {
	atomic.AddInt32(&c.calls, 1)
	v, ok := c.values[key]
	return v, ok
}

func (c *countingRegistry) Close() error { return nil }

type slowRegistry struct {
	delay time.Duration
}

func (s *slowRegistry) Get(ctx context.Context, key string) (string, bool) {
	select {
	case <-time.After(s.delay):
		return "late", true
	case <-ctx.Done():
		return "", false
	}
}

func (s *slowRegistry) Close() error { return nil }

func TestCachingRegistryServesFromCacheWithinTTL(t *testing.T) {
	inner := &countingRegistry{values: map[string]string{"k": "v"}}
	c := NewCachingRegistry(inner, time.Minute, time.Second, 0, nil)

	for i := 0; i < 5; i++ {
		v, ok := c.Get(context.Background(), "k")
		assert.True(t, ok)
		assert.Equal(t, "v", v)
	}
	assert.EqualValues(t, 1, inner.calls, "repeated lookups within TTL must not hit the inner registry again")
}

func TestCachingRegistryExpiresAfterTTL(t *testing.T) {
	inner := &countingRegistry{values: map[string]string{"k": "v"}}
	c := NewCachingRegistry(inner, 10*time.Millisecond, time.Second, 0, nil)

	_, _ = c.Get(context.Background(), "k")
	time.Sleep(30 * time.Millisecond)
	_, _ = c.Get(context.Background(), "k")

	assert.EqualValues(t, 2, inner.calls)
}

func TestCachingRegistryClampsTTLTo60Seconds(t *testing.T) {
	c := NewCachingRegistry(NewStatic(nil), time.Hour, time.Second, 0, nil)
	assert.LessOrEqual(t, c.ttl, 60*time.Second)
}

func TestCachingRegistryTimeoutIsAbsent(t *testing.T) {
	inner := &slowRegistry{delay: time.Second}
	c := NewCachingRegistry(inner, time.Minute, 10*time.Millisecond, 0, nil)

	start := time.Now()
	v, ok := c.Get(context.Background(), "k")
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Equal(t, "", v)
	assert.Less(t, elapsed, 500*time.Millisecond, "a timed-out lookup must not block the caller for the full inner delay")
}

func TestCachingRegistryCapsEntryCount(t *testing.T) {
	inner := &countingRegistry{values: map[string]string{"a": "1", "b": "2", "c": "3"}}
	c := NewCachingRegistry(inner, time.Minute, time.Second, 2, nil)

	c.Get(context.Background(), "a")
	c.Get(context.Background(), "b")
	c.Get(context.Background(), "c")

	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	assert.LessOrEqual(t, n, 2)
}

func TestCachingRegistryClose(t *testing.T) {
	c := NewCachingRegistry(NewStatic(nil), time.Minute, time.Second, 0, nil)
	assert.NoError(t, c.Close())
}
