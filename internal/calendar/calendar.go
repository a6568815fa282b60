// Package calendar models a person's work-time profile: which weekdays are
// workdays, where the workday starts and ends, and how many minutes of
// capacity a date range holds once breaks and time off are taken out.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/interval"
)

// DefaultBreakMinutes is the fixed daily meal-break deduction applied when
// converting a workday into capacity minutes.
const DefaultBreakMinutes = 60

// ErrInvalidRange indicates a profile or date range that violates the input
// contract (day start at or after day end, range end before range start).
var ErrInvalidRange = errors.New("calendar: invalid range")

// MinuteOfDay is a wall-clock offset from midnight expressed in minutes.
type MinuteOfDay int

// ParseHHMM parses a "HH:MM" string into a MinuteOfDay.
func ParseHHMM(s string) (MinuteOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("calendar: malformed time of day %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("calendar: malformed time of day %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("calendar: malformed time of day %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("calendar: time of day %q out of range", s)
	}
	return MinuteOfDay(hour*60 + minute), nil
}

// String renders the offset as "HH:MM".
func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Profile describes a person's recurring work-time shape.
type Profile struct {
	Workdays []time.Weekday
	DayStart MinuteOfDay
	DayEnd   MinuteOfDay
}

// DefaultProfile mirrors the company baseline: Monday through Friday,
// 08:00 to 17:00.
func DefaultProfile() Profile {
	return Profile{
		Workdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		DayStart: 8 * 60,
		DayEnd:   17 * 60,
	}
}

// Validate enforces the profile invariant DayStart < DayEnd.
func (p Profile) Validate() error {
	if p.DayStart >= p.DayEnd {
		return fmt.Errorf("%w: day start %s is not before day end %s", ErrInvalidRange, p.DayStart, p.DayEnd)
	}
	return nil
}

// IsWorkday reports whether the calendar day containing t falls on one of the
// profile's workdays.
func (p Profile) IsWorkday(t time.Time) bool {
	for _, day := range p.Workdays {
		if t.Weekday() == day {
			return true
		}
	}
	return false
}

// DayBounds returns the absolute [DayStart, DayEnd) span of the calendar day
// containing t, in t's location.
func (p Profile) DayBounds(t time.Time) interval.Span {
	midnight := StartOfDay(t)
	return interval.Span{
		Start: midnight.Add(time.Duration(p.DayStart) * time.Minute),
		End:   midnight.Add(time.Duration(p.DayEnd) * time.Minute),
	}
}

// DailyCapacityMinutes is the plannable time of one workday: the day span
// minus the fixed break, never negative.
func (p Profile) DailyCapacityMinutes(breakMinutes int) int {
	raw := int(p.DayEnd - p.DayStart)
	if raw < 0 {
		raw = 0
	}
	capacity := raw - breakMinutes
	if capacity < 0 {
		return 0
	}
	return capacity
}

// CapacityMinutes computes the total capacity of the inclusive date range
// [start, end]: workday count times daily capacity, where any day touched by
// a time-off span is excluded entirely rather than pro-rated.
func CapacityMinutes(p Profile, start, end time.Time, timeOff []interval.Span, breakMinutes int) (int, error) {
	startDay := StartOfDay(start)
	endDay := StartOfDay(end)
	if endDay.Before(startDay) {
		return 0, fmt.Errorf("%w: end date %s before start date %s", ErrInvalidRange, endDay.Format("2006-01-02"), startDay.Format("2006-01-02"))
	}

	offDays := coveredDays(timeOff)
	perDay := p.DailyCapacityMinutes(breakMinutes)

	total := 0
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		if !p.IsWorkday(day) {
			continue
		}
		if _, off := offDays[dayKey(day)]; off {
			continue
		}
		total += perDay
	}
	return total, nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// coveredDays expands the given spans into the set of calendar days they
// touch. The end instant is exclusive, so a span ending exactly at midnight
// does not claim the following day.
func coveredDays(spans []interval.Span) map[string]struct{} {
	days := make(map[string]struct{})
	for _, s := range spans {
		if !s.IsValid() {
			continue
		}
		last := StartOfDay(s.End.Add(-time.Second))
		for day := StartOfDay(s.Start); !day.After(last); day = day.AddDate(0, 0, 1) {
			days[dayKey(day)] = struct{}{}
		}
	}
	return days
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}
