package registry

import "context"

// Registry is the narrow, read-only capability every check operator is
// constructed with. It hides the connection lifecycle of whatever backs
// it (bbolt, Redis, a cache decorator, or an in-memory fake) behind a
// single lookup method. Absence, timeouts, and malformed stores all
// collapse to (_, false) here; the core never sees a registry error.
type Registry interface {
	// Get returns the raw stored value for key, or ("", false) if the
	// key is absent, the lookup timed out, or the backend failed.
	Get(ctx context.Context, key string) (string, bool)

	// Close releases the registry's underlying connection.
	Close() error
}

// Static is an in-memory Registry backed by a plain map, used in tests
// and for fixtures built from the forecasting notebook's candidate
// threshold output.
type Static struct {
	values map[string]string
}

// NewStatic builds a Static registry from the given key/value set. The
// map is copied; mutating the input afterward has no effect.
func NewStatic(values map[string]string) *Static {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Static{values: cp}
}

// Get implements Registry.
func (s *Static) Get(_ context.Context, key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Close implements Registry. Static has nothing to release.
func (s *Static) Close() error { return nil }

// Set installs or overwrites a key, useful when building up a fixture
// incrementally in tests.
func (s *Static) Set(key, value string) {
	s.values[key] = value
}
