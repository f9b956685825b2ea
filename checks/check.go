// Package checks implements the QC check operators: Range, StepDelta,
// SpikeDelta, Sigma, NullAggregate, NullConsecutive, MetaIdentity, and
// MetaValue. Each is a Check, dispatched by the engine's pipeline
// builder rather than switched on at runtime.
package checks

import (
	"context"

	"sensorqc.evalgo.org/semantic"
)

// Result is everything a single Evaluate call produced: zero or more
// per-observation outcomes, zero or more window-scoped events.
type Result struct {
	Outcomes []semantic.QCOutcomeQuantitative
	Events   []semantic.QCEvent
}

func (r *Result) addOutcome(o semantic.QCOutcomeQuantitative) {
	r.Outcomes = append(r.Outcomes, o)
}

func (r *Result) addEvent(e semantic.QCEvent) {
	r.Events = append(r.Events, e)
}

// Check is the common interface every QC check operator implements. Each
// engine partition holds its own []Check, built by the engine's checks
// factory when the partition starts, and feeds every incoming
// observation through each one in turn; the registry's method
// enumerations are consulted inside each check, not when building it. Checks are pure functions of (observation|window,
// registry snapshot), so the same input against the same registry
// snapshot always yields the same result.
type Check interface {
	// Family identifies the check for logging and testId construction.
	Family() string

	// Evaluate folds obs into the check's state (if any) and returns any
	// outcomes/events it produces as a result.
	Evaluate(ctx context.Context, obs semantic.Observation) Result
}

// Flusher is implemented by stateful checks that buffer observations
// (delta reorder buffers, window tumblers) and may still hold
// unevaluated state when their partition winds down. The engine calls
// Flush when a partition is reaped or the pool stops, so buffered
// observations are drained through the sink instead of silently
// dropped.
type Flusher interface {
	Flush(ctx context.Context) Result
}

const testIDBase = "http://placeholder.catalogue.ceh.ac.uk/qc"
