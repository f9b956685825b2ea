package registry

import (
	"strings"

	"sensorqc.evalgo.org/semantic"
)

const sep = "::"

// Join builds a compound registry key from non-empty parts, joined by the
// canonical "::" separator. A leading or trailing "::" is never produced:
// empty parts (used by callers to optionally omit a time suffix) are
// dropped rather than leaving a bare separator behind.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func puidPrefix(p semantic.PUID) string {
	return Join(p.Feature, p.Procedure, p.ObservableProperty)
}

// IntendedSpacingKey addresses the expected inter-observation spacing, in
// milliseconds, for a PUID.
func IntendedSpacingKey(p semantic.PUID) string {
	return Join(puidPrefix(p), "intendedspacing")
}

// RangeMethodsKey addresses the "m1::m2::..." enumeration of range methods.
func RangeMethodsKey(p semantic.PUID) string {
	return Join(puidPrefix(p), "thresholds", "range")
}

// RangeGranularityKey addresses a range method's granularity tag.
func RangeGranularityKey(p semantic.PUID, method string) string {
	return Join(puidPrefix(p), "thresholds", "range", method)
}

// RangeLeafKey addresses a min/max leaf for a range method, optionally at a
// derived time suffix (pass "" for the single granularity).
func RangeLeafKey(p semantic.PUID, method, minOrMax, suffix string) string {
	return Join(puidPrefix(p), "thresholds", "range", method, minOrMax, suffix)
}

// DeltaMethodsKey addresses the method enumeration for a delta family
// ("step" or "spike").
func DeltaMethodsKey(p semantic.PUID, deltaKind string) string {
	return Join(puidPrefix(p), "thresholds", "delta", deltaKind)
}

// DeltaGranularityKey addresses a delta method's granularity tag.
func DeltaGranularityKey(p semantic.PUID, deltaKind, method string) string {
	return Join(puidPrefix(p), "thresholds", "delta", deltaKind, method)
}

// DeltaLeafKey addresses a min/max leaf for a delta::step or delta::spike
// method.
func DeltaLeafKey(p semantic.PUID, deltaKind, method, minOrMax, suffix string) string {
	return Join(puidPrefix(p), "thresholds", "delta", deltaKind, method, minOrMax, suffix)
}

// SigmaMethodsKey addresses the sigma method enumeration.
func SigmaMethodsKey(p semantic.PUID) string {
	return Join(puidPrefix(p), "thresholds", "sigma")
}

// SigmaGranularityKey addresses a sigma method's granularity tag, scoped by
// window duration class.
func SigmaGranularityKey(p semantic.PUID, windowDur, method string) string {
	return Join(puidPrefix(p), "thresholds", "sigma", windowDur, method)
}

// SigmaLeafKey addresses a min/max leaf for a sigma method.
func SigmaLeafKey(p semantic.PUID, windowDur, method, minOrMax, suffix string) string {
	return Join(puidPrefix(p), "thresholds", "sigma", windowDur, method, minOrMax, suffix)
}

// NullAggregateKey addresses the null-aggregate threshold for a window
// duration class.
func NullAggregateKey(p semantic.PUID, windowDur string) string {
	return Join(puidPrefix(p), "thresholds", "null", "aggregate", windowDur)
}

// NullConsecutiveKey addresses the null-consecutive run threshold.
func NullConsecutiveKey(p semantic.PUID) string {
	return Join(puidPrefix(p), "thresholds", "null", "consecutive")
}

// MetaIdentityKey addresses the feature-level identity check enumeration.
func MetaIdentityKey(feature string) string {
	return Join(feature, "meta", "identity")
}

// MetaIdentitySetKey addresses the PUID set affected by a named identity
// check.
func MetaIdentitySetKey(feature, name string) string {
	return Join(feature, "meta", "identity", name)
}

// MetaValueKey addresses the feature-level value check enumeration.
func MetaValueKey(feature string) string {
	return Join(feature, "meta", "value")
}

// SplitMethods splits a "m1::m2::..." enumeration value into its ordered
// method list, preserving the order the registry returned (method order is
// implementer-visible per the resolver's tie-break rule).
func SplitMethods(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, sep)
}

// SplitPUIDTriples splits a "f,p,o::f,p,o::..." identity-set value into its
// constituent PUIDs.
func SplitPUIDTriples(value string) []semantic.PUID {
	if value == "" {
		return nil
	}
	groups := strings.Split(value, sep)
	out := make([]semantic.PUID, 0, len(groups))
	for _, g := range groups {
		parts := strings.SplitN(g, ",", 3)
		if len(parts) != 3 {
			continue
		}
		out = append(out, semantic.PUID{
			Feature:            parts[0],
			Procedure:          parts[1],
			ObservableProperty: parts[2],
		})
	}
	return out
}
