// Package capacity reconciles fractional percentage commitments and absolute
// minute lumps into per-period minute totals, utilization percentages and
// scope-overrun accounting.
package capacity

import (
	"math"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/calendar"
	"github.com/NescAdmin/nesc-planering/internal/interval"
)

// Allocation is the capability shared by both allocation kinds: how many
// minutes the allocation contributes to a period.
type Allocation interface {
	ContributionMinutes(p Period) int
}

// PercentAllocation commits a fraction of a person's daily capacity across an
// inclusive date range. Only workdays contribute.
type PercentAllocation struct {
	Range        DateRange
	Percent      int
	Profile      calendar.Profile
	BreakMinutes int
}

// ContributionMinutes sums, over each workday the allocation range shares
// with the period, the percent share of the day's capacity (truncated per
// day, matching the books-of-record accounting).
func (a PercentAllocation) ContributionMinutes(p Period) int {
	if a.Percent <= 0 {
		return 0
	}
	perDay := a.Profile.DailyCapacityMinutes(a.BreakMinutes)
	if perDay <= 0 {
		return 0
	}
	share := perDay * a.Percent / 100

	lo := a.Range.Start
	if p.Range.Start.After(lo) {
		lo = p.Range.Start
	}
	hi := a.Range.End
	if p.Range.End.Before(hi) {
		hi = p.Range.End
	}

	total := 0
	for day := lo; !day.After(hi); day = day.AddDate(0, 0, 1) {
		if a.Profile.IsWorkday(day) {
			total += share
		}
	}
	return total
}

// Overlaps reports whether the allocation range shares any day with the
// period.
func (a PercentAllocation) Overlaps(p Period) bool {
	return a.Range.OverlapDays(p.Range) > 0
}

// MinuteAllocation spreads an absolute minute total evenly across every
// calendar day of its inclusive range. Non-workdays carry their share too;
// the range is produced by a UI that snaps to five-day buckets, and the even
// spread over all days is preserved as observed behavior.
type MinuteAllocation struct {
	Range   DateRange
	Minutes int
}

// ContributionMinutes returns the per-day rate times the number of days the
// range shares with the period, rounded to a whole minute.
func (a MinuteAllocation) ContributionMinutes(p Period) int {
	days := a.Range.Days()
	if days <= 0 || a.Minutes <= 0 {
		return 0
	}
	overlap := a.Range.OverlapDays(p.Range)
	if overlap <= 0 {
		return 0
	}
	rate := float64(a.Minutes) / float64(days)
	return int(math.Round(rate * float64(overlap)))
}

// AllTime is a period wide enough to cover any allocation range, used to
// evaluate an allocation over its own full range.
func AllTime() Period {
	return Period{Range: DateRange{
		Start: time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC),
	}}
}

// PlannedMinutes totals each allocation's contribution over its own full
// range.
func PlannedMinutes(allocs []Allocation) int {
	all := AllTime()
	total := 0
	for _, a := range allocs {
		total += a.ContributionMinutes(all)
	}
	return total
}

// ScopeTotals summarizes a project's committable budget against its planned
// allocations, all in minutes.
type ScopeTotals struct {
	Scope              int
	Planned            int
	PlannedFromPercent int
	PlannedFromMinutes int
	Over               int
}

// Exceeded reports whether planned time exceeds the scope.
func (t ScopeTotals) Exceeded() bool {
	return t.Over > 0
}

// ComputeScopeTotals derives the scope summary for a project: scope is the
// explicit budget override when positive, otherwise the sum of work-item
// budgets; planned combines the capacity-weighted percent allocations with
// the minute allocations.
func ComputeScopeTotals(budgetOverride, workItemMinutes int, percent []PercentAllocation, minute []MinuteAllocation) ScopeTotals {
	scope := workItemMinutes
	if budgetOverride > 0 {
		scope = budgetOverride
	}

	all := AllTime()
	fromPercent := 0
	for _, a := range percent {
		fromPercent += a.ContributionMinutes(all)
	}
	fromMinutes := 0
	for _, a := range minute {
		fromMinutes += a.ContributionMinutes(all)
	}

	planned := fromPercent + fromMinutes
	over := planned - scope
	if over < 0 {
		over = 0
	}

	return ScopeTotals{
		Scope:              scope,
		Planned:            planned,
		PlannedFromPercent: fromPercent,
		PlannedFromMinutes: fromMinutes,
		Over:               over,
	}
}

// PersonAllocations bundles one person's profile, absences and allocations
// for grid computation.
type PersonAllocations struct {
	PersonID string
	Profile  calendar.Profile
	TimeOff  []interval.Span
	Percent  []PercentAllocation
	AdHoc    []PercentAllocation
	Minute   []MinuteAllocation
}

// CellKey addresses one (person, period) cell of the utilization grid.
type CellKey struct {
	PersonID    string
	PeriodIndex int
}

// Grid holds per-cell utilization percentages plus per-person aggregates.
type Grid struct {
	Cells      map[CellKey]int
	RowAverage map[string]int
	RowPeak    map[string]int
}

// UtilizationGrid computes the percentage utilization of every (person,
// period) cell. Percent allocations overlapping a period add their raw
// percentage; minute allocations convert through the period's capacity. A
// period with zero capacity always reports 0%.
func UtilizationGrid(persons []PersonAllocations, periods []Period, breakMinutes int) Grid {
	grid := Grid{
		Cells:      make(map[CellKey]int, len(persons)*len(periods)),
		RowAverage: make(map[string]int, len(persons)),
		RowPeak:    make(map[string]int, len(persons)),
	}

	for _, person := range persons {
		rowTotal := 0
		peak := 0
		for i, period := range periods {
			cell := cellPercent(person, period, breakMinutes)
			grid.Cells[CellKey{PersonID: person.PersonID, PeriodIndex: i}] = cell
			rowTotal += cell
			if cell > peak {
				peak = cell
			}
		}

		denom := len(periods)
		if denom == 0 {
			denom = 1
		}
		grid.RowAverage[person.PersonID] = int(math.Round(float64(rowTotal) / float64(denom)))
		grid.RowPeak[person.PersonID] = peak
	}

	return grid
}

func cellPercent(person PersonAllocations, period Period, breakMinutes int) int {
	capMinutes, err := calendar.CapacityMinutes(person.Profile, period.Range.Start, period.Range.End, person.TimeOff, breakMinutes)
	if err != nil || capMinutes <= 0 {
		return 0
	}

	pct := 0
	for _, a := range person.Percent {
		if a.Overlaps(period) {
			pct += a.Percent
		}
	}
	for _, a := range person.AdHoc {
		if a.Overlaps(period) {
			pct += a.Percent
		}
	}

	minutes := 0
	for _, a := range person.Minute {
		minutes += a.ContributionMinutes(period)
	}
	if minutes > 0 {
		pct += int(math.Round(float64(minutes) / float64(capMinutes) * 100))
	}

	return pct
}
