package checks

import (
	"context"
	"fmt"
	"math"

	"sensorqc.evalgo.org/semantic"
	"sensorqc.evalgo.org/threshold"
)

const defaultDeltaBuffer = 3

// StepDeltaCheck evaluates |value(c) - value(p)| against the resolved
// max bound (min is ignored) for each consecutive pair of numeric
// observations on a PUID.
type StepDeltaCheck struct {
	resolver *threshold.Resolver
	buffers  map[string][]semantic.Observation
	capacity int
}

// NewStepDeltaCheck builds a StepDeltaCheck with the given out-of-order
// reorder buffer capacity (default 3 when non-positive).
func NewStepDeltaCheck(resolver *threshold.Resolver, bufferCapacity int) *StepDeltaCheck {
	if bufferCapacity <= 0 {
		bufferCapacity = defaultDeltaBuffer
	}
	return &StepDeltaCheck{resolver: resolver, buffers: make(map[string][]semantic.Observation), capacity: bufferCapacity}
}

// Family implements Check.
func (c *StepDeltaCheck) Family() string { return "delta::step" }

// Evaluate implements Check.
func (c *StepDeltaCheck) Evaluate(ctx context.Context, obs semantic.Observation) Result {
	var result Result
	if obs.Type != semantic.Numerical || obs.NumericValue == nil {
		return result
	}

	key := obs.PUID.String()
	buf := insertSorted(c.buffers[key], obs)

	for len(buf) > c.capacity {
		p, cur := buf[0], buf[1]
		result.Outcomes = append(result.Outcomes, c.evaluatePair(ctx, p, cur)...)
		buf = buf[1:]
	}
	c.buffers[key] = buf
	return result
}

// Flush implements Flusher, evaluating the consecutive pairs still
// sitting in the reorder buffers when the partition winds down. Pairs
// already evaluated while streaming are not re-emitted: the buffer only
// ever holds observations whose trailing pairs have not been judged yet.
func (c *StepDeltaCheck) Flush(ctx context.Context) Result {
	var result Result
	for key, buf := range c.buffers {
		for i := 0; i+1 < len(buf); i++ {
			result.Outcomes = append(result.Outcomes, c.evaluatePair(ctx, buf[i], buf[i+1])...)
		}
		delete(c.buffers, key)
	}
	return result
}

func (c *StepDeltaCheck) evaluatePair(ctx context.Context, p, cur semantic.Observation) []semantic.QCOutcomeQuantitative {
	d := math.Abs(*cur.NumericValue - *p.NumericValue)
	thresholds := c.resolver.ResolveDelta(ctx, cur.PUID, "step", cur.PhenomenonTimeStart)

	outcomes := make([]semantic.QCOutcomeQuantitative, 0, len(thresholds))
	for _, mt := range thresholds {
		if mt.Max == nil {
			continue
		}
		outcome := semantic.OutcomePass
		qv := 0.0
		if d > *mt.Max {
			outcome, qv = semantic.OutcomeFail, d-*mt.Max
		}
		outcomes = append(outcomes, semantic.QCOutcomeQuantitative{
			PUID:              cur.PUID,
			Instant:           cur.PhenomenonTimeStart,
			TestID:            fmt.Sprintf("%s/delta/step/%s/max", testIDBase, mt.Method),
			Outcome:           outcome,
			QuantitativeValue: qv,
		})
	}
	return outcomes
}

// SpikeDeltaCheck evaluates the centred second-difference magnitude
// |2*value(c) - value(p) - value(n)| against the resolved max bound for
// each consecutive triple of numeric observations on a PUID, emitted
// against the middle observation.
type SpikeDeltaCheck struct {
	resolver *threshold.Resolver
	buffers  map[string][]semantic.Observation
	capacity int
}

// NewSpikeDeltaCheck builds a SpikeDeltaCheck with the given reorder
// buffer capacity.
func NewSpikeDeltaCheck(resolver *threshold.Resolver, bufferCapacity int) *SpikeDeltaCheck {
	if bufferCapacity <= 0 {
		bufferCapacity = defaultDeltaBuffer
	}
	return &SpikeDeltaCheck{resolver: resolver, buffers: make(map[string][]semantic.Observation), capacity: bufferCapacity}
}

// Family implements Check.
func (c *SpikeDeltaCheck) Family() string { return "delta::spike" }

// Evaluate implements Check.
func (c *SpikeDeltaCheck) Evaluate(ctx context.Context, obs semantic.Observation) Result {
	var result Result
	if obs.Type != semantic.Numerical || obs.NumericValue == nil {
		return result
	}

	key := obs.PUID.String()
	buf := insertSorted(c.buffers[key], obs)

	for len(buf) > c.capacity+1 {
		p, cur, n := buf[0], buf[1], buf[2]
		result.Outcomes = append(result.Outcomes, c.evaluateTriple(ctx, p, cur, n)...)
		buf = buf[1:]
	}
	c.buffers[key] = buf
	return result
}

// Flush implements Flusher, evaluating the consecutive triples still
// sitting in the reorder buffers when the partition winds down.
func (c *SpikeDeltaCheck) Flush(ctx context.Context) Result {
	var result Result
	for key, buf := range c.buffers {
		for i := 0; i+2 < len(buf); i++ {
			result.Outcomes = append(result.Outcomes, c.evaluateTriple(ctx, buf[i], buf[i+1], buf[i+2])...)
		}
		delete(c.buffers, key)
	}
	return result
}

func (c *SpikeDeltaCheck) evaluateTriple(ctx context.Context, p, cur, n semantic.Observation) []semantic.QCOutcomeQuantitative {
	d := math.Abs(2*(*cur.NumericValue) - *p.NumericValue - *n.NumericValue)
	thresholds := c.resolver.ResolveDelta(ctx, cur.PUID, "spike", cur.PhenomenonTimeStart)

	outcomes := make([]semantic.QCOutcomeQuantitative, 0, len(thresholds))
	for _, mt := range thresholds {
		if mt.Max == nil {
			continue
		}
		outcome := semantic.OutcomePass
		qv := 0.0
		if d > *mt.Max {
			outcome, qv = semantic.OutcomeFail, d-*mt.Max
		}
		outcomes = append(outcomes, semantic.QCOutcomeQuantitative{
			PUID:              cur.PUID,
			Instant:           cur.PhenomenonTimeStart,
			TestID:            fmt.Sprintf("%s/delta/spike/%s/max", testIDBase, mt.Method),
			Outcome:           outcome,
			QuantitativeValue: qv,
		})
	}
	return outcomes
}

// insertSorted inserts obs into buf, keeping it ordered by
// PhenomenonTimeStart, tolerating the bounded out-of-order arrivals the
// delta checks are expected to handle.
func insertSorted(buf []semantic.Observation, obs semantic.Observation) []semantic.Observation {
	i := len(buf)
	for i > 0 && buf[i-1].PhenomenonTimeStart > obs.PhenomenonTimeStart {
		i--
	}
	buf = append(buf, semantic.Observation{})
	copy(buf[i+1:], buf[i:])
	buf[i] = obs
	return buf
}
