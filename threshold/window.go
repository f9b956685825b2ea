// Package threshold implements the threshold-resolution algorithm: given
// a PUID, a check family/method, a time instant, and (for window checks)
// a window duration, it maps to the applicable (min, max) bound pair.
package threshold

const (
	Window1h  = "1h"
	Window12h = "12h"
	Window24h = "24h"
)

// Window classification thresholds. Milliseconds on both the outcome
// and event paths; mixing units between the two misclassifies nearly
// every event window as 24h.
const (
	oneHourThresholdMs    = 5_400_000  // 1.5h
	twelveHourThresholdMs = 45_000_000 // 12.5h
)

// ClassifyWindow buckets an actual window span into one of {1h, 12h,
// 24h} for threshold lookup purposes. An under-filled window (e.g. 10h
// of data in a nominal 24h window) deliberately collapses into the
// nearest smaller bucket rather than producing a false anomaly.
func ClassifyWindow(windowStart, windowEnd int64) string {
	timeDiff := windowEnd - windowStart
	switch {
	case timeDiff < oneHourThresholdMs:
		return Window1h
	case timeDiff < twelveHourThresholdMs:
		return Window12h
	default:
		return Window24h
	}
}

// WindowCentre returns the true midpoint of a window, used as the
// instant at which sigma thresholds are resolved.
func WindowCentre(windowStart, windowEnd int64) int64 {
	return (windowStart + windowEnd) / 2
}
