package checks

import (
	"context"
	"fmt"
	"time"

	"sensorqc.evalgo.org/semantic"
	"sensorqc.evalgo.org/threshold"
	"sensorqc.evalgo.org/window"
)

// NullAggregateCheck counts null observations (absent numeric value) per
// tumbling window and, if the count meets or exceeds the resolved
// threshold, emits a QCEvent. The event-time watermark advances on every
// observation, numeric or null, but only the null count drives the
// emitted description.
type NullAggregateCheck struct {
	resolver *threshold.Resolver
	tumblers map[string]*window.Tumbler
}

// NewNullAggregateCheck builds a NullAggregateCheck with the three fixed
// tumbling durations.
func NewNullAggregateCheck(resolver *threshold.Resolver) *NullAggregateCheck {
	return &NullAggregateCheck{
		resolver: resolver,
		tumblers: map[string]*window.Tumbler{
			threshold.Window1h:  window.NewTumbler(time.Hour),
			threshold.Window12h: window.NewTumbler(12 * time.Hour),
			threshold.Window24h: window.NewTumbler(24 * time.Hour),
		},
	}
}

// Family implements Check.
func (c *NullAggregateCheck) Family() string { return "null::aggregate" }

// Evaluate implements Check.
func (c *NullAggregateCheck) Evaluate(ctx context.Context, obs semantic.Observation) Result {
	var result Result
	key := obs.PUID.String()
	isNull := obs.IsNull()

	for _, t := range c.tumblers {
		if closed, ok := t.Add(key, obs, isNull); ok {
			c.emit(ctx, &result, closed)
		}
	}
	return result
}

// Flush implements Flusher, closing any still-open windows so a final
// partially filled window is still judged when the partition winds down.
func (c *NullAggregateCheck) Flush(ctx context.Context) Result {
	var result Result
	for _, t := range c.tumblers {
		for _, b := range t.FlushAll() {
			c.emit(ctx, &result, b)
		}
	}
	return result
}

func (c *NullAggregateCheck) emit(ctx context.Context, result *Result, b *window.Bucket) {
	if len(b.Members) == 0 {
		return
	}
	puid := b.Members[0].PUID
	windowDur := threshold.ClassifyWindow(b.Start, b.End)

	limit, ok := c.resolver.NullAggregateThreshold(ctx, puid, windowDur)
	if !ok || b.NullCount < limit {
		return
	}

	result.addEvent(semantic.QCEvent{
		PUID:             puid,
		EventDescription: fmt.Sprintf("Consecutive Nulls: %d", b.NullCount),
		WindowStart:      b.Start,
		WindowEnd:        b.End,
	})
}
