package price

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Default daily publication time for day-ahead prices.
const (
	DefaultUpdateHour   = 13
	DefaultUpdateMinute = 0
)

// UpdateTime is the local wall-clock time of day at which the provider is
// expected to publish the next day's prices. It carries no date component.
type UpdateTime struct {
	Hour   int
	Minute int
}

// ParseUpdateTime parses an "HH:MM" string. An empty string yields the
// default update time.
func ParseUpdateTime(s string) (UpdateTime, error) {
	if s == "" {
		return UpdateTime{Hour: DefaultUpdateHour, Minute: DefaultUpdateMinute}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return UpdateTime{}, fmt.Errorf("invalid time format, expected HH:MM, got: %s", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return UpdateTime{}, fmt.Errorf("invalid hour value: %s", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return UpdateTime{}, fmt.Errorf("invalid minute value: %s", parts[1])
	}
	if hour < 0 || hour > 23 {
		return UpdateTime{}, fmt.Errorf("hour value must be between 0 and 23, got: %d", hour)
	}
	if minute < 0 || minute > 59 {
		return UpdateTime{}, fmt.Errorf("minute value must be between 0 and 59, got: %d", minute)
	}
	return UpdateTime{Hour: hour, Minute: minute}, nil
}

func (u UpdateTime) String() string {
	return fmt.Sprintf("%02d:%02d", u.Hour, u.Minute)
}

// on returns the instant at which u occurs on day's calendar date, in day's
// location.
func (u UpdateTime) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), u.Hour, u.Minute, 0, 0, day.Location())
}

// ShouldFetch reports whether a refresh from the provider is warranted at
// now. A fetch is due when today's coverage is missing, or when tomorrow's
// coverage is missing and now is at or past the daily update time. The
// provider publishes once per day, so before the update time a missing
// tomorrow is expected and not worth a network call.
func (s Series) ShouldFetch(updateTime UpdateTime, now time.Time) bool {
	if !s.HasCoverageFor(now) {
		return true
	}
	if !s.HasCoverageFor(now.Add(24 * time.Hour)) {
		if !now.Before(updateTime.on(now)) {
			return true
		}
	}
	return false
}

// DurationUntilNextFetch returns how long to wait before the next refresh
// is worth attempting: zero when today's coverage is missing, the time
// until tomorrow's update when tomorrow is already covered, and otherwise
// the time until today's update (zero if that has passed). Never negative.
func (s Series) DurationUntilNextFetch(updateTime UpdateTime, now time.Time) time.Duration {
	if !s.HasCoverageFor(now) {
		return 0
	}

	todayUpdate := updateTime.on(now)
	if s.HasCoverageFor(now.Add(24 * time.Hour)) {
		tomorrowUpdate := updateTime.on(now.AddDate(0, 0, 1))
		return clampDuration(tomorrowUpdate.Sub(now))
	}

	// Today is covered but tomorrow is not.
	if now.After(todayUpdate) {
		return 0
	}
	return clampDuration(todayUpdate.Sub(now))
}

func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
