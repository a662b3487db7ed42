package domain

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start.UTC(), End: end.UTC()}
}

func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps reports whether the two ranges share any instant. Touching
// endpoints do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// SameDay reports whether Start and End fall on the same calendar day in loc.
// An interval ending exactly at the following midnight spans two days.
func (i Interval) SameDay(loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	sy, sm, sd := i.Start.In(loc).Date()
	ey, em, ed := i.End.In(loc).Date()
	return sy == ey && sm == em && sd == ed
}

// DayWindow returns the calendar day(s) in loc covering the interval.
func (i Interval) DayWindow(loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	start := startOfDay(i.Start, loc)
	end := startOfDay(i.End, loc)
	if end.Before(i.End) {
		end = end.AddDate(0, 0, 1)
	}
	return Interval{Start: start.UTC(), End: end.UTC()}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
