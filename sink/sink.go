// Package sink forwards QC outcomes and events to downstream collaborators
// (persistence or alerting), which are out of scope for the engine itself.
package sink

import (
	"context"

	"sensorqc.evalgo.org/semantic"
)

// Sink is the narrow capability the engine publishes outcomes/events
// through. Implementations never block indefinitely: PublishOutcome and
// PublishEvent take a context and must respect cancellation so the
// engine's no-partial-record-on-cancellation guarantee holds end to end.
type Sink interface {
	PublishOutcome(ctx context.Context, o semantic.QCOutcomeQuantitative) error
	PublishEvent(ctx context.Context, e semantic.QCEvent) error
	Close() error
}

// Memory is an in-process Sink used in tests, collecting every outcome
// and event it receives in order.
type Memory struct {
	Outcomes []semantic.QCOutcomeQuantitative
	Events   []semantic.QCEvent
}

// NewMemory builds an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// PublishOutcome implements Sink.
func (m *Memory) PublishOutcome(_ context.Context, o semantic.QCOutcomeQuantitative) error {
	m.Outcomes = append(m.Outcomes, o)
	return nil
}

// PublishEvent implements Sink.
func (m *Memory) PublishEvent(_ context.Context, e semantic.QCEvent) error {
	m.Events = append(m.Events, e)
	return nil
}

// Close implements Sink. Memory has nothing to release.
func (m *Memory) Close() error { return nil }
