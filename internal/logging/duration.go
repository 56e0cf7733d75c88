package logging

import (
	"fmt"
	"math"
	"time"
)

// DurationString renders d for humans: milliseconds under a second, then
// rounded seconds, minutes, or hours ("499ms", "1s", "1m 30s", "2h 30m").
// Negative durations render as "0ms".
func DurationString(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}

	// Round to the nearest second when displaying in seconds or larger units.
	seconds := int64(math.Round(float64(ms) / 1000.0))
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	remSeconds := seconds % 60
	if minutes < 60 {
		if remSeconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm %ds", minutes, remSeconds)
	}

	hours := minutes / 60
	remMinutes := minutes % 60
	if remMinutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, remMinutes)
}
