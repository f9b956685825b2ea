package checks

import (
	"context"
	"fmt"

	"sensorqc.evalgo.org/registry"
	"sensorqc.evalgo.org/semantic"
)

// MetaIdentityCheck emits a fail outcome for every identity flag whose
// affected-PUID enumeration contains the observation's PUID, and a pass
// otherwise, for every identity name declared at the feature level.
type MetaIdentityCheck struct {
	reg registry.Registry
}

// NewMetaIdentityCheck builds a MetaIdentityCheck over reg.
func NewMetaIdentityCheck(reg registry.Registry) *MetaIdentityCheck {
	return &MetaIdentityCheck{reg: reg}
}

// Family implements Check.
func (c *MetaIdentityCheck) Family() string { return "meta::identity" }

// Evaluate implements Check.
func (c *MetaIdentityCheck) Evaluate(ctx context.Context, obs semantic.Observation) Result {
	var result Result

	namesVal, ok := c.reg.Get(ctx, registry.MetaIdentityKey(obs.PUID.Feature))
	if !ok {
		return result
	}

	for _, name := range registry.SplitMethods(namesVal) {
		setVal, ok := c.reg.Get(ctx, registry.MetaIdentitySetKey(obs.PUID.Feature, name))
		if !ok {
			continue
		}
		active := puidInSet(registry.SplitPUIDTriples(setVal), obs.PUID)

		outcome, qv := semantic.OutcomePass, 0.0
		if active {
			outcome, qv = semantic.OutcomeFail, 1
		}
		result.addOutcome(semantic.QCOutcomeQuantitative{
			PUID:              obs.PUID,
			Instant:           obs.PhenomenonTimeStart,
			TestID:            fmt.Sprintf("%s/meta/identity/%s", testIDBase, name),
			Outcome:           outcome,
			QuantitativeValue: qv,
		})
	}
	return result
}

func puidInSet(set []semantic.PUID, target semantic.PUID) bool {
	for _, p := range set {
		if p == target {
			return true
		}
	}
	return false
}

// MetaValueCheck enumerates value-check names at the feature level and
// emits a pass outcome with zero deviation for every affected downstream
// observation. The subject of comparison for a value check is an
// associated system reading (e.g. battery voltage), not the
// observation's own value; active failure modes against that reading are
// reserved for future implementation.
type MetaValueCheck struct {
	reg registry.Registry
}

// NewMetaValueCheck builds a MetaValueCheck over reg.
func NewMetaValueCheck(reg registry.Registry) *MetaValueCheck {
	return &MetaValueCheck{reg: reg}
}

// Family implements Check.
func (c *MetaValueCheck) Family() string { return "meta::value" }

// Evaluate implements Check.
func (c *MetaValueCheck) Evaluate(ctx context.Context, obs semantic.Observation) Result {
	var result Result

	namesVal, ok := c.reg.Get(ctx, registry.MetaValueKey(obs.PUID.Feature))
	if !ok {
		return result
	}

	for _, name := range registry.SplitMethods(namesVal) {
		methodsVal, ok := c.reg.Get(ctx, registry.Join(name, "thresholds", "range"))
		if !ok {
			continue
		}
		for _, method := range registry.SplitMethods(methodsVal) {
			result.addOutcome(semantic.QCOutcomeQuantitative{
				PUID:              obs.PUID,
				Instant:           obs.PhenomenonTimeStart,
				TestID:            fmt.Sprintf("%s/meta/value/%s/%s", testIDBase, name, method),
				Outcome:           semantic.OutcomePass,
				QuantitativeValue: 0,
			})
		}
	}
	return result
}
