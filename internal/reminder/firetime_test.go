package reminder

import (
	"testing"
	"time"
)

func TestComputeTrigger_FloorAlwaysHolds(t *testing.T) {
	now := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)
	cases := []struct {
		timeOfDay string
		days      int
	}{
		{"14:00", 1},  // exactly now
		{"14:00", 7},  // exactly now, weekly
		{"14:01", 1},  // inside the minimum window
		{"13:59", 1},  // just passed
		{"08:00", 1},  // passed hours ago
		{"23:59", 30}, // later today
		{"garbage", 1},
		{"", 3},
		{"25:99", 1}, // clamped
	}
	for _, tc := range cases {
		ft := ComputeTrigger(now, tc.timeOfDay, tc.days)
		if ft.InitialDelaySeconds < MinInitialDelaySeconds {
			t.Errorf("ComputeTrigger(%q, %d): initial delay %d below floor", tc.timeOfDay, tc.days, ft.InitialDelaySeconds)
		}
		if ft.IntervalSeconds < 1 {
			t.Errorf("ComputeTrigger(%q, %d): interval %d below 1", tc.timeOfDay, tc.days, ft.IntervalSeconds)
		}
	}
}

func TestComputeTrigger_TimeAlreadyPassed(t *testing.T) {
	// 14:00 now, reminder at 08:00: first fire is tomorrow 08:00,
	// 18 hours out.
	now := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)
	ft := ComputeTrigger(now, "08:00", 1)

	want := int64(18 * 3600)
	if ft.InitialDelaySeconds != want {
		t.Fatalf("initial delay = %d, want %d", ft.InitialDelaySeconds, want)
	}
	if !ft.FirstIsTomorrow {
		t.Fatal("FirstIsTomorrow = false, want true")
	}
	if ft.Hour != 8 || ft.Minute != 0 {
		t.Fatalf("parsed clock = %02d:%02d, want 08:00", ft.Hour, ft.Minute)
	}
}

func TestComputeTrigger_TimeLaterToday(t *testing.T) {
	now := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)
	ft := ComputeTrigger(now, "16:30", 1)

	want := int64(2*3600 + 30*60)
	if ft.InitialDelaySeconds != want {
		t.Fatalf("initial delay = %d, want %d", ft.InitialDelaySeconds, want)
	}
	if ft.FirstIsTomorrow {
		t.Fatal("FirstIsTomorrow = true for a later-today fire")
	}
}

func TestComputeTrigger_TooSoonIsPushedToFloor(t *testing.T) {
	// 30 seconds ahead of now is below the platform minimum.
	now := time.Date(2026, 3, 14, 14, 0, 30, 0, time.UTC)
	ft := ComputeTrigger(now, "14:01", 1)

	if ft.InitialDelaySeconds != MinInitialDelaySeconds {
		t.Fatalf("initial delay = %d, want %d", ft.InitialDelaySeconds, MinInitialDelaySeconds)
	}
	if ft.FirstIsTomorrow {
		t.Fatal("FirstIsTomorrow = true for a too-soon fire")
	}
}

func TestComputeTrigger_WeeklyInterval(t *testing.T) {
	// 09:05 now, reminder at 09:00: already passed, first fire tomorrow.
	now := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)
	ft := ComputeTrigger(now, "09:00", 7)

	if ft.IntervalSeconds != 604800 {
		t.Fatalf("interval = %d, want 604800", ft.IntervalSeconds)
	}
	if !ft.FirstIsTomorrow {
		t.Fatal("FirstIsTomorrow = false, want true")
	}
	want := int64(24*3600 - 5*60)
	if ft.InitialDelaySeconds != want {
		t.Fatalf("initial delay = %d, want %d", ft.InitialDelaySeconds, want)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in         string
		hour, mins int
	}{
		{"08:00", 8, 0},
		{"23:59", 23, 59},
		{"0:5", 0, 5},
		{"25:70", 23, 59},  // clamped
		{"-1:-1", 0, 0},    // clamped
		{"", 8, 0},         // default
		{"noon", 8, 0},     // default hour, missing minute
		{"12", 12, 0},      // missing minute defaults
		{"12:xx", 12, 0},   // invalid minute defaults
		{"xx:30", 8, 30},   // invalid hour defaults
		{" 9 : 15 ", 9, 15},
	}
	for _, tc := range cases {
		h, m := ParseTimeOfDay(tc.in)
		if h != tc.hour || m != tc.mins {
			t.Errorf("ParseTimeOfDay(%q) = %d:%d, want %d:%d", tc.in, h, m, tc.hour, tc.mins)
		}
	}
}
