package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorqc.evalgo.org/registry"
	"sensorqc.evalgo.org/threshold"
)

// With K=3, the sequence num, null, null, null, null, num emits exactly
// one event, edge-triggered on the third null, and nothing thereafter.
func TestNullConsecutiveCheckEdgeTrigger(t *testing.T) {
	puid := puidABC()
	reg := registry.NewStatic(map[string]string{
		registry.NullConsecutiveKey(puid): "3",
	})
	resolver := threshold.NewResolver(reg, nil)
	check := NewNullConsecutiveCheck(resolver)

	r := check.Evaluate(context.Background(), numericObs(t, puid, 0, "1"))
	assert.Empty(t, r.Events)

	r = check.Evaluate(context.Background(), nullObs(t, puid, 1000))
	assert.Empty(t, r.Events, "first null: counter=1")

	r = check.Evaluate(context.Background(), nullObs(t, puid, 2000))
	assert.Empty(t, r.Events, "second null: counter=2")

	r = check.Evaluate(context.Background(), nullObs(t, puid, 3000))
	require.Len(t, r.Events, 1, "third null: counter reaches K=3, edge fires")
	assert.Equal(t, "Consecutive nulls: 3", r.Events[0].EventDescription)

	r = check.Evaluate(context.Background(), nullObs(t, puid, 4000))
	assert.Empty(t, r.Events, "fourth null: already past the edge, no re-fire")

	r = check.Evaluate(context.Background(), numericObs(t, puid, 5000, "2"))
	assert.Empty(t, r.Events, "non-null resets the counter")
}

func TestNullConsecutiveCheckRunForKPlusM(t *testing.T) {
	puid := puidABC()
	reg := registry.NewStatic(map[string]string{
		registry.NullConsecutiveKey(puid): "2",
	})
	resolver := threshold.NewResolver(reg, nil)
	check := NewNullConsecutiveCheck(resolver)

	total := 0
	for i := int64(0); i < 6; i++ {
		r := check.Evaluate(context.Background(), nullObs(t, puid, i*1000))
		total += len(r.Events)
	}
	assert.Equal(t, 1, total, "a run of K+M consecutive nulls fires exactly once")
}

func TestNullConsecutiveCheckMissingThresholdNeverFires(t *testing.T) {
	puid := puidABC()
	reg := registry.NewStatic(nil)
	resolver := threshold.NewResolver(reg, nil)
	check := NewNullConsecutiveCheck(resolver)

	for i := int64(0); i < 10; i++ {
		r := check.Evaluate(context.Background(), nullObs(t, puid, i*1000))
		assert.Empty(t, r.Events)
	}
}

func TestNullConsecutiveCheckFamily(t *testing.T) {
	check := NewNullConsecutiveCheck(threshold.NewResolver(registry.NewStatic(nil), nil))
	assert.Equal(t, "null::consecutive", check.Family())
}
