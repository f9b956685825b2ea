package threshold

import (
	"context"
	"strconv"

	"sensorqc.evalgo.org/obslog"
	"sensorqc.evalgo.org/registry"
	"sensorqc.evalgo.org/semantic"
)

// MethodThreshold is one resolved (method, bound pair) tuple: the
// resolver's algorithm step 5 output.
type MethodThreshold struct {
	Method      string
	Granularity string
	Min         *float64
	Max         *float64
}

// Resolver implements the threshold-resolution algorithm against a
// Registry capability. It never holds its own connection; the
// registry's lifecycle is owned by whoever constructs it.
type Resolver struct {
	reg registry.Registry
	log *obslog.Logger
}

// NewResolver builds a Resolver over reg. log may be nil.
func NewResolver(reg registry.Registry, log *obslog.Logger) *Resolver {
	return &Resolver{reg: reg, log: log}
}

// ResolveRange resolves range thresholds for puid at instant.
func (r *Resolver) ResolveRange(ctx context.Context, puid semantic.PUID, instant int64) []MethodThreshold {
	methodsVal, ok := r.reg.Get(ctx, registry.RangeMethodsKey(puid))
	if !ok {
		return nil
	}
	methods := registry.SplitMethods(methodsVal)

	out := make([]MethodThreshold, 0, len(methods))
	for _, method := range methods {
		gran, ok := r.reg.Get(ctx, registry.RangeGranularityKey(puid, method))
		if !ok {
			continue
		}
		suffix := Suffix(gran, instant)
		minKey := registry.RangeLeafKey(puid, method, "min", suffix)
		maxKey := registry.RangeLeafKey(puid, method, "max", suffix)
		out = append(out, MethodThreshold{
			Method:      method,
			Granularity: gran,
			Min:         r.parseBound(ctx, minKey),
			Max:         r.parseBound(ctx, maxKey),
		})
	}
	return out
}

// ResolveDelta resolves delta::step or delta::spike thresholds for puid
// at instant. deltaKind is "step" or "spike".
func (r *Resolver) ResolveDelta(ctx context.Context, puid semantic.PUID, deltaKind string, instant int64) []MethodThreshold {
	methodsVal, ok := r.reg.Get(ctx, registry.DeltaMethodsKey(puid, deltaKind))
	if !ok {
		return nil
	}
	methods := registry.SplitMethods(methodsVal)

	out := make([]MethodThreshold, 0, len(methods))
	for _, method := range methods {
		gran, ok := r.reg.Get(ctx, registry.DeltaGranularityKey(puid, deltaKind, method))
		if !ok {
			continue
		}
		suffix := Suffix(gran, instant)
		minKey := registry.DeltaLeafKey(puid, deltaKind, method, "min", suffix)
		maxKey := registry.DeltaLeafKey(puid, deltaKind, method, "max", suffix)
		out = append(out, MethodThreshold{
			Method:      method,
			Granularity: gran,
			Min:         r.parseBound(ctx, minKey),
			Max:         r.parseBound(ctx, maxKey),
		})
	}
	return out
}

// ResolveSigma resolves sigma thresholds for puid, scoped to windowDur
// (one of Window1h/Window12h/Window24h) and resolved at centreInstant
// (the window's true midpoint).
func (r *Resolver) ResolveSigma(ctx context.Context, puid semantic.PUID, windowDur string, centreInstant int64) []MethodThreshold {
	methodsVal, ok := r.reg.Get(ctx, registry.SigmaMethodsKey(puid))
	if !ok {
		return nil
	}
	methods := registry.SplitMethods(methodsVal)

	out := make([]MethodThreshold, 0, len(methods))
	for _, method := range methods {
		gran, ok := r.reg.Get(ctx, registry.SigmaGranularityKey(puid, windowDur, method))
		if !ok {
			continue
		}
		suffix := Suffix(gran, centreInstant)
		minKey := registry.SigmaLeafKey(puid, windowDur, method, "min", suffix)
		maxKey := registry.SigmaLeafKey(puid, windowDur, method, "max", suffix)
		out = append(out, MethodThreshold{
			Method:      method,
			Granularity: gran,
			Min:         r.parseBound(ctx, minKey),
			Max:         r.parseBound(ctx, maxKey),
		})
	}
	return out
}

// NullAggregateThreshold resolves the integer null-aggregate threshold
// for puid at the classified window duration. The second return is false
// when the key is absent or malformed.
func (r *Resolver) NullAggregateThreshold(ctx context.Context, puid semantic.PUID, windowDur string) (int, bool) {
	v, ok := r.reg.Get(ctx, registry.NullAggregateKey(puid, windowDur))
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		if r.log != nil {
			r.log.WithPUID(puid.Feature, puid.Procedure, puid.ObservableProperty).
				WarnOncePerMinute(registry.NullAggregateKey(puid, windowDur), "malformed null-aggregate threshold value")
		}
		return 0, false
	}
	return n, true
}

// NullConsecutiveThreshold resolves the integer null-consecutive run
// threshold for puid.
func (r *Resolver) NullConsecutiveThreshold(ctx context.Context, puid semantic.PUID) (int, bool) {
	v, ok := r.reg.Get(ctx, registry.NullConsecutiveKey(puid))
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		if r.log != nil {
			r.log.WithPUID(puid.Feature, puid.Procedure, puid.ObservableProperty).
				WarnOncePerMinute(registry.NullConsecutiveKey(puid), "malformed null-consecutive threshold value")
		}
		return 0, false
	}
	return n, true
}

func (r *Resolver) parseBound(ctx context.Context, key string) *float64 {
	v, ok := r.reg.Get(ctx, key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if r.log != nil {
			r.log.WarnOncePerMinute(key, "malformed threshold bound value, treating as absent")
		}
		return nil
	}
	return &f
}
