package reminder

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// MinInitialDelaySeconds is the hard floor on the first fire delay.
// Mobile OS notification schedulers reject or misbehave on sub-minute
// delays; this is a platform contract, not a tuning knob.
const MinInitialDelaySeconds = 60

const (
	defaultHour   = 8
	defaultMinute = 0
)

// FireTimes is the output of ComputeTrigger: the concrete delays handed
// to the notification service plus the parsed clock components the daily
// repeat trigger needs.
type FireTimes struct {
	InitialDelaySeconds int64
	IntervalSeconds     int64
	Hour                int
	Minute              int
	// FirstIsTomorrow is true when the time-of-day had already passed at
	// computation time, pushing the first fire to tomorrow.
	FirstIsTomorrow bool
}

// ComputeTrigger computes the next absolute fire delay for a reminder at
// timeOfDay ("HH:mm") repeating every frequencyDays, relative to now.
func ComputeTrigger(now time.Time, timeOfDay string, frequencyDays int) FireTimes {
	hour, minute := ParseTimeOfDay(timeOfDay)

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	diff := next.Sub(now)

	firstIsTomorrow := false
	switch {
	case diff <= 0:
		// Already passed (or exactly now): first fire is tomorrow.
		next = next.AddDate(0, 0, 1)
		firstIsTomorrow = true
	case diff <= MinInitialDelaySeconds*time.Second:
		// Too close to now for the platform; push to the minimum delay.
		if diff < MinInitialDelaySeconds*time.Second {
			diff = MinInitialDelaySeconds * time.Second
		}
		next = now.Add(diff)
	}

	initial := int64(math.Round(next.Sub(now).Seconds()))
	if initial < MinInitialDelaySeconds {
		initial = MinInitialDelaySeconds
	}

	interval := int64(math.Round(float64(frequencyDays) * 86400))
	if interval < 1 {
		interval = 1
	}

	return FireTimes{
		InitialDelaySeconds: initial,
		IntervalSeconds:     interval,
		Hour:                hour,
		Minute:              minute,
		FirstIsTomorrow:     firstIsTomorrow,
	}
}

// ParseTimeOfDay parses "HH:mm". Invalid or missing parts default to
// 08:00; each component is clamped to its valid range.
func ParseTimeOfDay(s string) (hour, minute int) {
	hour, minute = defaultHour, defaultMinute
	parts := strings.SplitN(s, ":", 2)
	if len(parts) > 0 {
		if h, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			hour = h
		}
	}
	if len(parts) > 1 {
		if m, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			minute = m
		}
	}
	hour = clamp(hour, 0, 23)
	minute = clamp(minute, 0, 59)
	return hour, minute
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
