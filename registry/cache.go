package registry

import (
	"context"
	"sync"
	"time"

	"sensorqc.evalgo.org/obslog"
)

type cacheEntry struct {
	value   string
	found   bool
	expires time.Time
}

// CachingRegistry decorates a Registry with a bounded local TTL cache
// (TTL clamped to 60s) keyed by the full registry key, and a per-call
// timeout that maps to absent rather than blocking the operator. It is itself a Registry, so it can wrap BoltRegistry,
// RedisRegistry, or another Static fake transparently.
type CachingRegistry struct {
	inner   Registry
	ttl     time.Duration
	timeout time.Duration
	maxKeys int
	log     *obslog.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachingRegistry wraps inner with a read-through cache. log may be
// nil, in which case lookup timeouts are silently absorbed without a
// warning.
func NewCachingRegistry(inner Registry, ttl, timeout time.Duration, maxKeys int, log *obslog.Logger) *CachingRegistry {
	if ttl > 60*time.Second {
		ttl = 60 * time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &CachingRegistry{
		inner:   inner,
		ttl:     ttl,
		timeout: timeout,
		maxKeys: maxKeys,
		log:     log,
		entries: make(map[string]cacheEntry),
	}
}

// Get implements Registry.
func (c *CachingRegistry) Get(ctx context.Context, key string) (string, bool) {
	if v, ok := c.lookupFresh(key); ok {
		return v.value, v.found
	}

	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		value string
		found bool
	}
	done := make(chan result, 1)
	go func() {
		v, found := c.inner.Get(lookupCtx, key)
		done <- result{v, found}
	}()

	select {
	case r := <-done:
		c.store(key, r.value, r.found)
		return r.value, r.found
	case <-lookupCtx.Done():
		if c.log != nil {
			c.log.WarnOncePerMinute(keyPattern(key), "registry lookup timed out, treating as absent")
		}
		return "", false
	}
}

// Close implements Registry.
func (c *CachingRegistry) Close() error {
	return c.inner.Close()
}

func (c *CachingRegistry) lookupFresh(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		return cacheEntry{}, false
	}
	return e, true
}

func (c *CachingRegistry) store(key, value string, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxKeys > 0 && len(c.entries) >= c.maxKeys {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = cacheEntry{value: value, found: found, expires: time.Now().Add(c.ttl)}
}

// keyPattern collapses a fully-resolved key down to its family-level
// prefix for log-storm suppression, so that "A::B::C::thresholds::range"
// and "D::E::F::thresholds::range" are treated as distinct patterns while
// repeated lookups for the same PUID+family collapse to one warning.
func keyPattern(key string) string {
	const maxParts = 5
	parts := make([]string, 0, maxParts)
	rest := key
	for i := 0; i < maxParts; i++ {
		idx := indexSep(rest)
		if idx < 0 {
			parts = append(parts, rest)
			break
		}
		parts = append(parts, rest[:idx])
		rest = rest[idx+2:]
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "::" + p
	}
	return out
}

func indexSep(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == ':' && s[i+1] == ':' {
			return i
		}
	}
	return -1
}
