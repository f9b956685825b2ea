package threshold

import "time"

// Granularity tags, in the order the registry enumerates them.
const (
	GranularitySingle = "single"
	GranularityHour   = "hour"
	GranularityDay    = "day"
	GranularityMonth  = "month"
)

// Suffix derives the registry time-suffix for instant (epoch millis, UTC)
// at the given granularity. Single granularity has no suffix.
func Suffix(granularity string, instant int64) string {
	t := time.UnixMilli(instant).UTC()
	switch granularity {
	case GranularitySingle:
		return ""
	case GranularityHour:
		return roundToHour(t).Format("2006-01-02T15")
	case GranularityDay:
		return t.Format("2006-01-02")
	case GranularityMonth:
		return t.Format("2006-01")
	default:
		return ""
	}
}

// roundToHour rounds t to the nearest hour: floor if the minute is ≤ 30,
// otherwise ceil to the next hour.
func roundToHour(t time.Time) time.Time {
	floor := t.Truncate(time.Hour)
	if t.Minute() <= 30 {
		return floor
	}
	return floor.Add(time.Hour)
}
