package window

import (
	"time"

	"sensorqc.evalgo.org/semantic"
)

// Bucket is one tumbling window's accumulated state: the numeric running
// variance, the null count, and every member observation (sigma needs to
// attribute the window-level judgement back to each contributing point).
type Bucket struct {
	Start, End int64
	Welford    Welford
	NullCount  int
	Members    []semantic.Observation
}

// Tumbler maintains one tumbling window per key (a PUID string), closing
// and emitting the previous bucket only when event time advances past
// its end. Out-of-order arrivals behind an already-closed bucket are
// dropped from that bucket's statistics; windows are never reopened.
type Tumbler struct {
	durationMs int64
	current    map[string]*Bucket
}

// NewTumbler creates a Tumbler for the given tumbling duration.
func NewTumbler(duration time.Duration) *Tumbler {
	return &Tumbler{
		durationMs: duration.Milliseconds(),
		current:    make(map[string]*Bucket),
	}
}

// Add folds obs into the window for key. If obs's event time falls
// within the currently open bucket, it returns (nil, false). If it
// advances past the bucket's end, the prior bucket is closed and
// returned alongside ok=true, with obs starting the next bucket.
func (t *Tumbler) Add(key string, obs semantic.Observation, isNull bool) (*Bucket, bool) {
	instant := obs.PhenomenonTimeStart
	cur, exists := t.current[key]

	if !exists {
		t.current[key] = t.newBucket(instant)
		t.fold(t.current[key], obs, isNull)
		return nil, false
	}

	if instant >= cur.Start && instant < cur.End {
		t.fold(cur, obs, isNull)
		return nil, false
	}

	if instant < cur.Start {
		// Out-of-order arrival behind the current window: dropped from
		// window statistics, but the observation still flows downstream
		// through other operators.
		return nil, false
	}

	closed := cur
	t.current[key] = t.newBucket(instant)
	t.fold(t.current[key], obs, isNull)
	return closed, true
}

// Flush closes and returns the open bucket for key, if any, removing it
// from the tracker. Used at shutdown to avoid discarding a partially
// filled final window silently.
func (t *Tumbler) Flush(key string) (*Bucket, bool) {
	cur, ok := t.current[key]
	if !ok {
		return nil, false
	}
	delete(t.current, key)
	return cur, true
}

// FlushAll closes and returns every open bucket, clearing the tracker.
func (t *Tumbler) FlushAll() []*Bucket {
	if len(t.current) == 0 {
		return nil
	}
	out := make([]*Bucket, 0, len(t.current))
	for _, b := range t.current {
		out = append(out, b)
	}
	t.current = make(map[string]*Bucket)
	return out
}

func (t *Tumbler) newBucket(instant int64) *Bucket {
	start := (instant / t.durationMs) * t.durationMs
	return &Bucket{Start: start, End: start + t.durationMs}
}

func (t *Tumbler) fold(b *Bucket, obs semantic.Observation, isNull bool) {
	b.Members = append(b.Members, obs)
	if isNull {
		b.NullCount++
		return
	}
	if obs.NumericValue != nil {
		b.Welford.Add(*obs.NumericValue)
	}
}
