package interval

import (
	"testing"
	"time"
)

func at(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
}

func TestFree(t *testing.T) {
	t.Parallel()

	day := func(t *testing.T) Span {
		return Span{Start: at(t, 8, 0), End: at(t, 17, 0)}
	}

	t.Run("empty busy set returns the whole base", func(t *testing.T) {
		t.Parallel()

		free := Free(day(t), nil)
		if len(free) != 1 {
			t.Fatalf("expected 1 span, got %d", len(free))
		}
		if !free[0].Start.Equal(at(t, 8, 0)) || !free[0].End.Equal(at(t, 17, 0)) {
			t.Fatalf("unexpected span %v", free[0])
		}
	})

	t.Run("gaps are emitted between busy spans", func(t *testing.T) {
		t.Parallel()

		busy := []Span{
			{Start: at(t, 9, 0), End: at(t, 10, 0)},
			{Start: at(t, 12, 0), End: at(t, 13, 0)},
		}
		free := Free(day(t), busy)
		want := []Span{
			{Start: at(t, 8, 0), End: at(t, 9, 0)},
			{Start: at(t, 10, 0), End: at(t, 12, 0)},
			{Start: at(t, 13, 0), End: at(t, 17, 0)},
		}
		assertSpans(t, free, want)
	})

	t.Run("overlapping and unordered busy spans are tolerated", func(t *testing.T) {
		t.Parallel()

		busy := []Span{
			{Start: at(t, 12, 0), End: at(t, 14, 0)},
			{Start: at(t, 9, 0), End: at(t, 11, 0)},
			{Start: at(t, 10, 0), End: at(t, 12, 30)},
		}
		free := Free(day(t), busy)
		want := []Span{
			{Start: at(t, 8, 0), End: at(t, 9, 0)},
			{Start: at(t, 14, 0), End: at(t, 17, 0)},
		}
		assertSpans(t, free, want)
	})

	t.Run("busy spans outside the base are discarded", func(t *testing.T) {
		t.Parallel()

		busy := []Span{
			{Start: at(t, 6, 0), End: at(t, 7, 0)},
			{Start: at(t, 18, 0), End: at(t, 19, 0)},
			{Start: at(t, 7, 0), End: at(t, 9, 0)},
		}
		free := Free(day(t), busy)
		want := []Span{{Start: at(t, 9, 0), End: at(t, 17, 0)}}
		assertSpans(t, free, want)
	})

	t.Run("degenerate base yields nothing", func(t *testing.T) {
		t.Parallel()

		free := Free(Span{Start: at(t, 17, 0), End: at(t, 8, 0)}, nil)
		if len(free) != 0 {
			t.Fatalf("expected no spans, got %v", free)
		}
	})

	t.Run("fully booked base yields nothing", func(t *testing.T) {
		t.Parallel()

		free := Free(day(t), []Span{{Start: at(t, 7, 0), End: at(t, 18, 0)}})
		if len(free) != 0 {
			t.Fatalf("expected no spans, got %v", free)
		}
	})
}

// Free and the merged busy set must partition the base without gaps or
// double coverage.
func TestFreeBusyPartition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		busy []Span
	}{
		{name: "no busy", busy: nil},
		{name: "single block", busy: []Span{{Start: at(t, 9, 0), End: at(t, 10, 30)}}},
		{
			name: "overlapping blocks",
			busy: []Span{
				{Start: at(t, 9, 0), End: at(t, 11, 0)},
				{Start: at(t, 10, 0), End: at(t, 12, 0)},
				{Start: at(t, 15, 45), End: at(t, 16, 15)},
			},
		},
		{
			name: "blocks spilling past the bounds",
			busy: []Span{
				{Start: at(t, 5, 0), End: at(t, 8, 30)},
				{Start: at(t, 16, 0), End: at(t, 20, 0)},
			},
		},
	}

	base := Span{Start: at(t, 8, 0), End: at(t, 17, 0)}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			free := Free(base, tc.busy)

			clipped := make([]Span, 0, len(tc.busy))
			for _, b := range tc.busy {
				if c := b.Clip(base); c.IsValid() {
					clipped = append(clipped, c)
				}
			}
			merged := Merge(clipped)

			var total time.Duration
			for _, s := range free {
				total += s.Duration()
			}
			for _, s := range merged {
				total += s.Duration()
			}
			if total != base.Duration() {
				t.Fatalf("free+busy covers %v, base is %v", total, base.Duration())
			}

			for _, f := range free {
				for _, b := range merged {
					if f.Overlaps(b) {
						t.Fatalf("free span %v overlaps busy span %v", f, b)
					}
				}
			}
		})
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	got := Merge([]Span{
		{Start: at(t, 10, 0), End: at(t, 11, 0)},
		{Start: at(t, 8, 0), End: at(t, 9, 0)},
		{Start: at(t, 8, 30), End: at(t, 9, 30)},
		{Start: at(t, 12, 0), End: at(t, 12, 0)},
	})
	want := []Span{
		{Start: at(t, 8, 0), End: at(t, 9, 30)},
		{Start: at(t, 10, 0), End: at(t, 11, 0)},
	}
	assertSpans(t, got, want)
}

func TestSnapUp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "already aligned",
			in:   at(t, 9, 0),
			want: at(t, 9, 0),
		},
		{
			name: "mid hour rounds up",
			in:   at(t, 9, 17),
			want: at(t, 10, 0),
		},
		{
			name: "one minute before the boundary",
			in:   at(t, 9, 59),
			want: at(t, 10, 0),
		},
		{
			name: "trailing seconds on a boundary bump a full unit",
			in:   time.Date(2025, time.March, 10, 9, 0, 30, 0, time.UTC),
			want: at(t, 10, 0),
		},
		{
			name: "sub-second components are zeroed",
			in:   time.Date(2025, time.March, 10, 9, 12, 0, 9000, time.UTC),
			want: at(t, 10, 0),
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := SnapUp(tc.in, Grid)
			if !got.Equal(tc.want) {
				t.Fatalf("SnapUp(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSnapUpIdempotent(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*60; i += 7 {
		in := start.Add(time.Duration(i)*time.Minute + 13*time.Second)
		once := SnapUp(in, Grid)
		twice := SnapUp(once, Grid)
		if !twice.Equal(once) {
			t.Fatalf("snap not idempotent for %v: %v then %v", in, once, twice)
		}
	}
}

func assertSpans(t *testing.T, got, want []Span) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d spans, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Fatalf("span %d = %v, want %v", i, got[i], want[i])
		}
	}
}
