package checks

import (
	"context"
	"fmt"

	"sensorqc.evalgo.org/semantic"
	"sensorqc.evalgo.org/threshold"
)

// RangeCheck emits a pass/fail per resolved method × {min, max} bound
// for every numeric observation with a present value. Null observations
// never produce range outcomes.
type RangeCheck struct {
	resolver *threshold.Resolver
}

// NewRangeCheck builds a RangeCheck over resolver.
func NewRangeCheck(resolver *threshold.Resolver) *RangeCheck {
	return &RangeCheck{resolver: resolver}
}

// Family implements Check.
func (c *RangeCheck) Family() string { return "range" }

// Evaluate implements Check.
func (c *RangeCheck) Evaluate(ctx context.Context, obs semantic.Observation) Result {
	var result Result
	if obs.Type != semantic.Numerical || obs.NumericValue == nil {
		return result
	}
	value := *obs.NumericValue

	thresholds := c.resolver.ResolveRange(ctx, obs.PUID, obs.PhenomenonTimeStart)
	for _, mt := range thresholds {
		if mt.Min != nil {
			result.addOutcome(evalBound(obs, mt.Method, "min", value, *mt.Min, true))
		}
		if mt.Max != nil {
			result.addOutcome(evalBound(obs, mt.Method, "max", value, *mt.Max, false))
		}
	}
	return result
}

// evalBound produces the outcome for a single min or max bound. For min,
// a fail is value < bound with quantitativeValue = bound - value. For
// max, a fail is value > bound with quantitativeValue = value - bound.
func evalBound(obs semantic.Observation, method, minOrMax string, value, bound float64, isMin bool) semantic.QCOutcomeQuantitative {
	var outcome string
	var qv float64
	if isMin {
		if value < bound {
			outcome, qv = semantic.OutcomeFail, bound-value
		} else {
			outcome, qv = semantic.OutcomePass, 0
		}
	} else {
		if value > bound {
			outcome, qv = semantic.OutcomeFail, value-bound
		} else {
			outcome, qv = semantic.OutcomePass, 0
		}
	}
	return semantic.QCOutcomeQuantitative{
		PUID:              obs.PUID,
		Instant:           obs.PhenomenonTimeStart,
		TestID:            fmt.Sprintf("%s/range/%s/%s", testIDBase, method, minOrMax),
		Outcome:           outcome,
		QuantitativeValue: qv,
	}
}
