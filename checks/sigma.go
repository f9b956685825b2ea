package checks

import (
	"context"
	"fmt"
	"time"

	"sensorqc.evalgo.org/semantic"
	"sensorqc.evalgo.org/threshold"
	"sensorqc.evalgo.org/window"
)

// SigmaCheck computes streaming sample variance over tumbling windows
// {1h, 12h, 24h} and, on each window close, emits an outcome per method
// and {min, max} bound for every observation that contributed to the
// window, so downstream joins can attribute the window-level judgement
// to each point.
type SigmaCheck struct {
	resolver *threshold.Resolver
	tumblers map[string]*window.Tumbler // keyed by windowDur class
}

// NewSigmaCheck builds a SigmaCheck with the three fixed tumbling
// durations.
func NewSigmaCheck(resolver *threshold.Resolver) *SigmaCheck {
	return &SigmaCheck{
		resolver: resolver,
		tumblers: map[string]*window.Tumbler{
			threshold.Window1h:  window.NewTumbler(time.Hour),
			threshold.Window12h: window.NewTumbler(12 * time.Hour),
			threshold.Window24h: window.NewTumbler(24 * time.Hour),
		},
	}
}

// Family implements Check.
func (c *SigmaCheck) Family() string { return "sigma" }

// Evaluate implements Check.
func (c *SigmaCheck) Evaluate(ctx context.Context, obs semantic.Observation) Result {
	var result Result
	if obs.Type != semantic.Numerical || obs.NumericValue == nil {
		return result
	}

	key := obs.PUID.String()
	for _, t := range c.tumblers {
		if closed, ok := t.Add(key, obs, false); ok {
			c.emit(ctx, &result, closed)
		}
	}
	return result
}

// Flush implements Flusher, closing any still-open windows so their
// member observations are not dropped when the partition winds down.
func (c *SigmaCheck) Flush(ctx context.Context) Result {
	var result Result
	for _, t := range c.tumblers {
		for _, b := range t.FlushAll() {
			c.emit(ctx, &result, b)
		}
	}
	return result
}

func (c *SigmaCheck) emit(ctx context.Context, result *Result, b *window.Bucket) {
	if len(b.Members) == 0 || b.Welford.Count() < 2 {
		return
	}
	puid := b.Members[0].PUID
	windowDur := threshold.ClassifyWindow(b.Start, b.End)
	centre := threshold.WindowCentre(b.Start, b.End)
	variance := b.Welford.Variance()

	thresholds := c.resolver.ResolveSigma(ctx, puid, windowDur, centre)
	for _, mt := range thresholds {
		if mt.Min != nil {
			outcome, qv := semantic.OutcomePass, 0.0
			if variance < *mt.Min {
				outcome, qv = semantic.OutcomeFail, *mt.Min-variance
			}
			testID := fmt.Sprintf("%s/sigma/%s/%s/min", testIDBase, windowDur, mt.Method)
			for _, member := range b.Members {
				result.addOutcome(semantic.QCOutcomeQuantitative{
					PUID: puid, Instant: member.PhenomenonTimeStart,
					TestID: testID, Outcome: outcome, QuantitativeValue: qv,
				})
			}
		}
		if mt.Max != nil {
			outcome, qv := semantic.OutcomePass, 0.0
			if variance > *mt.Max {
				outcome, qv = semantic.OutcomeFail, variance-*mt.Max
			}
			testID := fmt.Sprintf("%s/sigma/%s/%s/max", testIDBase, windowDur, mt.Method)
			for _, member := range b.Members {
				result.addOutcome(semantic.QCOutcomeQuantitative{
					PUID: puid, Instant: member.PhenomenonTimeStart,
					TestID: testID, Outcome: outcome, QuantitativeValue: qv,
				})
			}
		}
	}
}
