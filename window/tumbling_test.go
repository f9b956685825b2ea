package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorqc.evalgo.org/semantic"
)

func obsAt(t *testing.T, instant int64, value string) semantic.Observation {
	t.Helper()
	puid := semantic.PUID{Feature: "A", Procedure: "B", ObservableProperty: "C"}
	obs, err := semantic.NewNumericObservation(puid, instant, instant, value)
	require.NoError(t, err)
	return obs
}

func TestTumblerDoesNotEmitWhileWindowOpen(t *testing.T) {
	tumbler := NewTumbler(time.Hour)

	_, closed := tumbler.Add("k", obsAt(t, 0, "1"), false)
	assert.False(t, closed)

	_, closed = tumbler.Add("k", obsAt(t, 1000, "2"), false)
	assert.False(t, closed)
}

func TestTumblerEmitsPreviousBucketOnAdvance(t *testing.T) {
	tumbler := NewTumbler(time.Hour)

	tumbler.Add("k", obsAt(t, 0, "1"), false)
	tumbler.Add("k", obsAt(t, 1000, "2"), false)

	bucket, closed := tumbler.Add("k", obsAt(t, 3_600_000, "3"), false)
	require.True(t, closed)
	assert.Equal(t, int64(0), bucket.Start)
	assert.Equal(t, int64(3_600_000), bucket.End)
	assert.Len(t, bucket.Members, 2)
}

func TestTumblerDropsOutOfOrderBehindClosedWindow(t *testing.T) {
	tumbler := NewTumbler(time.Hour)

	tumbler.Add("k", obsAt(t, 0, "1"), false)
	tumbler.Add("k", obsAt(t, 3_600_000, "2"), false) // advances to second bucket

	bucket, closed := tumbler.Add("k", obsAt(t, 500, "99"), false) // behind current bucket start
	assert.False(t, closed)
	assert.Nil(t, bucket)
}

func TestTumblerTracksNullCountSeparatelyFromWelford(t *testing.T) {
	tumbler := NewTumbler(time.Hour)

	tumbler.Add("k", obsAt(t, 0, "1"), false)
	tumbler.Add("k", obsAt(t, 1000, "0"), true) // null

	bucket, closed := tumbler.Add("k", obsAt(t, 3_600_000, "3"), false)
	require.True(t, closed)
	assert.Equal(t, 1, bucket.NullCount)
	assert.Equal(t, 1, bucket.Welford.Count(), "a null observation must not feed the variance accumulator")
}

func TestTumblerIndependentKeys(t *testing.T) {
	tumbler := NewTumbler(time.Hour)

	_, closedA := tumbler.Add("a", obsAt(t, 0, "1"), false)
	_, closedB := tumbler.Add("b", obsAt(t, 3_600_000, "1"), false)
	assert.False(t, closedA)
	assert.False(t, closedB, "each key tracks its own independent window")
}

func TestTumblerFlush(t *testing.T) {
	tumbler := NewTumbler(time.Hour)
	tumbler.Add("k", obsAt(t, 0, "1"), false)

	bucket, ok := tumbler.Flush("k")
	require.True(t, ok)
	assert.Len(t, bucket.Members, 1)

	_, ok = tumbler.Flush("k")
	assert.False(t, ok, "flush removes the bucket from tracking")
}

func TestTumblerFlushAll(t *testing.T) {
	tumbler := NewTumbler(time.Hour)
	tumbler.Add("a", obsAt(t, 0, "1"), false)
	tumbler.Add("b", obsAt(t, 1000, "2"), false)

	buckets := tumbler.FlushAll()
	assert.Len(t, buckets, 2)
	assert.Empty(t, tumbler.FlushAll(), "flushing clears every open bucket")
}
