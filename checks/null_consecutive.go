package checks

import (
	"context"
	"strconv"

	"sensorqc.evalgo.org/semantic"
	"sensorqc.evalgo.org/threshold"
)

type consecutiveRun struct {
	counter  int
	runStart int64
}

// NullConsecutiveCheck maintains a per-PUID counter over event-time
// ordered observations, incrementing on null and resetting on non-null,
// and emits exactly one QCEvent per run when the counter transitions
// from K-1 to K (edge-triggered, not re-fired for the rest of the run).
type NullConsecutiveCheck struct {
	resolver *threshold.Resolver
	runs     map[string]*consecutiveRun
}

// NewNullConsecutiveCheck builds a NullConsecutiveCheck.
func NewNullConsecutiveCheck(resolver *threshold.Resolver) *NullConsecutiveCheck {
	return &NullConsecutiveCheck{resolver: resolver, runs: make(map[string]*consecutiveRun)}
}

// Family implements Check.
func (c *NullConsecutiveCheck) Family() string { return "null::consecutive" }

// Evaluate implements Check.
func (c *NullConsecutiveCheck) Evaluate(ctx context.Context, obs semantic.Observation) Result {
	var result Result
	key := obs.PUID.String()
	run, ok := c.runs[key]
	if !ok {
		run = &consecutiveRun{}
		c.runs[key] = run
	}

	if !obs.IsNull() {
		run.counter = 0
		return result
	}

	if run.counter == 0 {
		run.runStart = obs.PhenomenonTimeStart
	}
	run.counter++

	k, ok := c.resolver.NullConsecutiveThreshold(ctx, obs.PUID)
	if ok && run.counter == k {
		result.addEvent(semantic.QCEvent{
			PUID:             obs.PUID,
			EventDescription: consecutiveDescription(run.counter),
			WindowStart:      run.runStart,
			WindowEnd:        obs.PhenomenonTimeEnd,
		})
	}
	return result
}

func consecutiveDescription(c int) string {
	return "Consecutive nulls: " + strconv.Itoa(c)
}
