package interval

import (
	"sort"
	"time"
)

// Grid is the alignment unit for scheduling. Every committed block starts on
// a grid boundary and spans a whole number of grid units.
const Grid = 60 * time.Minute

// Span represents a half-open [Start, End) time range.
type Span struct {
	Start time.Time
	End   time.Time
}

// IsValid reports whether the span covers a positive duration.
func (s Span) IsValid() bool {
	return s.Start.Before(s.End)
}

// Duration returns the length of the span. Invalid spans report zero.
func (s Span) Duration() time.Duration {
	if !s.IsValid() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Minutes returns the span length in whole minutes, rounded down.
func (s Span) Minutes() int {
	return int(s.Duration() / time.Minute)
}

// Overlaps reports whether two half-open spans share any instant.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// Clip returns the portion of s that falls inside bounds. The result may be
// invalid when the spans do not overlap.
func (s Span) Clip(bounds Span) Span {
	out := s
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out
}

// Free subtracts the busy spans from base and returns the remaining free
// spans, disjoint and sorted ascending by start. Busy spans may overlap each
// other and extend beyond base; both are tolerated. A degenerate base yields
// no spans.
func Free(base Span, busy []Span) []Span {
	if !base.IsValid() {
		return nil
	}

	clipped := make([]Span, 0, len(busy))
	for _, b := range busy {
		if !b.Overlaps(base) {
			continue
		}
		c := b.Clip(base)
		if c.IsValid() {
			clipped = append(clipped, c)
		}
	}
	sort.Slice(clipped, func(i, j int) bool {
		return clipped[i].Start.Before(clipped[j].Start)
	})

	free := make([]Span, 0, len(clipped)+1)
	cursor := base.Start
	for _, b := range clipped {
		if b.Start.After(cursor) {
			free = append(free, Span{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(base.End) {
		free = append(free, Span{Start: cursor, End: base.End})
	}

	return free
}

// Merge collapses the given spans into the minimal set of disjoint spans,
// sorted ascending. Invalid spans are dropped.
func Merge(spans []Span) []Span {
	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.IsValid() {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.Before(valid[j].Start)
	})

	merged := make([]Span, 0, len(valid))
	current := valid[0]
	for _, s := range valid[1:] {
		if s.Start.After(current.End) {
			merged = append(merged, current)
			current = s
			continue
		}
		if s.End.After(current.End) {
			current.End = s.End
		}
	}
	merged = append(merged, current)

	return merged
}

// SnapUp returns the smallest instant at or after t that lies on a grid
// boundary measured from midnight, with seconds and sub-second components
// zeroed. An instant already on the boundary is returned unchanged, so the
// operation is idempotent.
func SnapUp(t time.Time, grid time.Duration) time.Time {
	if grid <= 0 {
		grid = Grid
	}
	gridMinutes := int(grid / time.Minute)

	minuteOfDay := t.Hour()*60 + t.Minute()
	remainder := minuteOfDay % gridMinutes
	if remainder == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}

	truncated := t.Truncate(time.Minute)
	if remainder == 0 {
		// On the boundary but with trailing seconds: bump a full grid unit.
		return truncated.Add(grid)
	}
	return truncated.Add(time.Duration(gridMinutes-remainder) * time.Minute)
}
