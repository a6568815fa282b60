package capacity

import (
	"fmt"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/calendar"
)

// View identifies the aggregation bucket shape used for utilization reports.
type View string

const (
	// ViewDay buckets per calendar day across the reference work week.
	ViewDay View = "day"
	// ViewWeek buckets per Monday-to-Friday work week.
	ViewWeek View = "week"
	// ViewMonth buckets per calendar month.
	ViewMonth View = "month"
)

// DateRange is an inclusive civil date range. Both bounds are midnight
// instants in the company location.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalizes both instants to midnight.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: calendar.StartOfDay(start), End: calendar.StartOfDay(end)}
}

// Validate enforces Start <= End.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: %s ends before it starts", calendar.ErrInvalidRange, r)
	}
	return nil
}

// Days counts the calendar days in the inclusive range.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// OverlapDays counts the calendar days shared by two inclusive ranges.
func (r DateRange) OverlapDays(other DateRange) int {
	lo := r.Start
	if other.Start.After(lo) {
		lo = other.Start
	}
	hi := r.End
	if other.End.Before(hi) {
		hi = other.End
	}
	if hi.Before(lo) {
		return 0
	}
	return int(hi.Sub(lo).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}

// Period is a computed aggregation bucket. Periods are generated on demand
// and never stored.
type Period struct {
	Label string
	Range DateRange
}

var weekdayLabels = []string{"Måndag", "Tisdag", "Onsdag", "Torsdag", "Fredag"}

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "Maj", "Jun", "Jul", "Aug", "Sep", "Okt", "Nov", "Dec"}

// Periods generates count consecutive buckets of the requested view anchored
// at the reference date: day view walks the Monday-to-Friday days of the
// reference week, week view emits Monday-to-Friday buckets, month view emits
// whole calendar months. A non-positive count selects the view default
// (5 days, 5 weeks, 12 months).
func Periods(view View, ref time.Time, count int) ([]Period, error) {
	ref = calendar.StartOfDay(ref)

	switch view {
	case ViewDay:
		if count <= 0 {
			count = 5
		}
		start := weekStart(ref)
		out := make([]Period, 0, count)
		for i := 0; i < count; i++ {
			day := start.AddDate(0, 0, i)
			out = append(out, Period{
				Label: weekdayLabels[i%len(weekdayLabels)],
				Range: DateRange{Start: day, End: day},
			})
		}
		return out, nil

	case ViewWeek, "":
		if count <= 0 {
			count = 5
		}
		start := weekStart(ref)
		out := make([]Period, 0, count)
		for i := 0; i < count; i++ {
			s := start.AddDate(0, 0, 7*i)
			_, week := s.ISOWeek()
			out = append(out, Period{
				Label: fmt.Sprintf("v%d", week),
				Range: DateRange{Start: s, End: s.AddDate(0, 0, 4)},
			})
		}
		return out, nil

	case ViewMonth:
		if count <= 0 {
			count = 12
		}
		cur := monthStart(ref)
		out := make([]Period, 0, count)
		for i := 0; i < count; i++ {
			next := cur.AddDate(0, 1, 0)
			out = append(out, Period{
				Label: monthLabels[int(cur.Month())-1],
				Range: DateRange{Start: cur, End: next.AddDate(0, 0, -1)},
			})
			cur = next
		}
		return out, nil

	default:
		return nil, fmt.Errorf("capacity: unknown view %q", view)
	}
}

// weekStart returns the Monday of the week containing d.
func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func monthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}
