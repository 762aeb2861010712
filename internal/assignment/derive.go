package assignment

import (
	"math"
	"time"
)

const (
	day            = 24 * time.Hour
	ReminderWindow = 24 * time.Hour
)

// Polarity decides whether a progress bar shows time remaining or time
// elapsed within the window.
type Polarity int

const (
	PolarityRemaining Polarity = iota
	PolarityElapsed
)

func (p Polarity) String() string {
	if p == PolarityElapsed {
		return "elapsed"
	}
	return "remaining"
}

// ParsePolarity accepts "remaining" or "elapsed".
func ParsePolarity(v string) (Polarity, bool) {
	switch v {
	case "remaining", "":
		return PolarityRemaining, true
	case "elapsed":
		return PolarityElapsed, true
	}
	return PolarityRemaining, false
}

type Progress struct {
	Window   time.Duration
	Polarity Polarity
}

func DefaultProgress() Progress {
	return Progress{Window: 14 * day, Polarity: PolarityRemaining}
}

// DaysLeft rounds up to whole days and never goes below zero.
func DaysLeft(due, now time.Time) int {
	d := int(math.Ceil(float64(due.Sub(now)) / float64(day)))
	if d < 0 {
		return 0
	}
	return d
}

// ProgressPercent returns a value in [0,100] for a countdown over p.Window.
func ProgressPercent(due, now time.Time, p Progress) int {
	if p.Window <= 0 {
		p.Window = DefaultProgress().Window
	}
	pct := float64(due.Sub(now)) / float64(p.Window) * 100
	pct = math.Max(0, math.Min(pct, 100))
	if p.Polarity == PolarityElapsed {
		pct = 100 - pct
	}
	return int(math.Round(pct))
}

// HasUpcomingReminder reports whether any record is due within 24 hours.
// Overdue records count.
func HasUpcomingReminder(records []Record, now time.Time) bool {
	for _, r := range records {
		if r.Due.Sub(now) <= ReminderWindow {
			return true
		}
	}
	return false
}
