package engine

import (
	"sensorqc.evalgo.org/checks"
	"sensorqc.evalgo.org/registry"
	"sensorqc.evalgo.org/threshold"
)

// NewChecksFactory returns a newLane constructor for NewPool that builds
// one full set of checks per lane against the given (shared, concurrency
// safe) registry. Each lane gets its own Resolver and its own stateful
// check instances (delta buffers, sigma tumblers, null-run counters), so
// lanes never share mutable check state even though they share reg.
// deltaBuffer sizes the delta checks' out-of-order reorder buffers; pass
// 0 for the default.
func NewChecksFactory(reg registry.Registry, deltaBuffer int) func() []checks.Check {
	return func() []checks.Check {
		resolver := threshold.NewResolver(reg, nil)
		return []checks.Check{
			checks.NewRangeCheck(resolver),
			checks.NewStepDeltaCheck(resolver, deltaBuffer),
			checks.NewSpikeDeltaCheck(resolver, deltaBuffer),
			checks.NewSigmaCheck(resolver),
			checks.NewNullAggregateCheck(resolver),
			checks.NewNullConsecutiveCheck(resolver),
			checks.NewMetaIdentityCheck(reg),
			checks.NewMetaValueCheck(reg),
		}
	}
}
