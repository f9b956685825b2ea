package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const hourMs = int64(3_600_000)

// classify(1h)="1h", classify(12h)="12h", classify(24h)="24h",
// classify(10h)="12h" (under-filled window collapses down),
// classify(0)="1h".
func TestClassifyWindowMonotonicity(t *testing.T) {
	tests := []struct {
		name     string
		start    int64
		end      int64
		expected string
	}{
		{"1h", 0, hourMs, Window1h},
		{"12h", 0, 12 * hourMs, Window12h},
		{"24h", 0, 24 * hourMs, Window24h},
		{"10h under-filled", 0, 10 * hourMs, Window12h},
		{"zero span", 0, 0, Window1h},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyWindow(tt.start, tt.end))
		})
	}
}

func TestClassifyWindowBoundaryValues(t *testing.T) {
	assert.Equal(t, Window1h, ClassifyWindow(0, oneHourThresholdMs-1))
	assert.Equal(t, Window12h, ClassifyWindow(0, oneHourThresholdMs))
	assert.Equal(t, Window12h, ClassifyWindow(0, twelveHourThresholdMs-1))
	assert.Equal(t, Window24h, ClassifyWindow(0, twelveHourThresholdMs))
}

// A nominal 24h window expressed in milliseconds must classify as 24h;
// it would collapse to 1h under a seconds-based comparison.
func TestWindowClassificationUsesMilliseconds(t *testing.T) {
	const day = 86_400_000
	assert.Equal(t, Window24h, ClassifyWindow(0, day))
}

func TestWindowCentreIsTrueMidpoint(t *testing.T) {
	assert.Equal(t, int64(50), WindowCentre(0, 100))
	assert.Equal(t, int64(150), WindowCentre(100, 200))
}
