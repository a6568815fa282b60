package schedule

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/calendar"
	"github.com/NescAdmin/nesc-planering/internal/interval"
)

type fakeDirectory struct {
	profiles map[string]calendar.Profile
}

func (f *fakeDirectory) GetPersonProfile(ctx context.Context, personID string) (calendar.Profile, error) {
	profile, ok := f.profiles[personID]
	if !ok {
		return calendar.Profile{}, fmt.Errorf("person %s not found", personID)
	}
	return profile, nil
}

type fakeCatalog struct {
	totals map[string]int
}

func (f *fakeCatalog) WorkItemTotalMinutes(ctx context.Context, workItemID string) (int, error) {
	total, ok := f.totals[workItemID]
	if !ok {
		return 0, fmt.Errorf("work item %s not found", workItemID)
	}
	return total, nil
}

type fakeBlockStore struct {
	mu     sync.Mutex
	blocks []Block
}

func (f *fakeBlockStore) CreateBlock(ctx context.Context, block Block) (Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks = append(f.blocks, block)
	return block, nil
}

func (f *fakeBlockStore) BlocksInWindow(ctx context.Context, personID string, window interval.Span) ([]interval.Span, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	spans := make([]interval.Span, 0)
	for _, b := range f.blocks {
		if b.PersonID == personID && b.Span.Overlaps(window) {
			spans = append(spans, b.Span)
		}
	}
	return spans, nil
}

func (f *fakeBlockStore) MinutesCommitted(ctx context.Context, workItemID, personID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, b := range f.blocks {
		if b.WorkItemID == workItemID && b.PersonID == personID {
			total += b.Span.Minutes()
		}
	}
	return total, nil
}

type fakeTimeOff struct {
	spans map[string][]interval.Span
}

func (f *fakeTimeOff) TimeOffInWindow(ctx context.Context, personID string, window interval.Span) ([]interval.Span, error) {
	out := make([]interval.Span, 0)
	for _, s := range f.spans[personID] {
		if s.Overlaps(window) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fixture struct {
	scheduler *Scheduler
	store     *fakeBlockStore
	timeOff   *fakeTimeOff
	catalog   *fakeCatalog
}

func newFixture(t *testing.T, totals map[string]int) *fixture {
	t.Helper()

	store := &fakeBlockStore{}
	off := &fakeTimeOff{spans: make(map[string][]interval.Span)}
	catalog := &fakeCatalog{totals: totals}
	directory := &fakeDirectory{profiles: map[string]calendar.Profile{
		"anna": calendar.DefaultProfile(),
	}}

	counter := 0
	idGen := func() string {
		counter++
		return fmt.Sprintf("block-%d", counter)
	}

	return &fixture{
		scheduler: NewScheduler(directory, catalog, store, off, idGen),
		store:     store,
		timeOff:   off,
		catalog:   catalog,
	}
}

// Monday 2025-03-10.
func monday(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
}

func TestSchedulerRun_PlacesSingleBlockFromSnappedStart(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]int{"item": 180})

	result, err := fx.scheduler.Run(context.Background(), RunParams{
		WorkItemID: "item",
		PersonID:   "anna",
		From:       monday(7, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RemainingMinutes != 0 {
		t.Fatalf("remaining = %d, want 0", result.RemainingMinutes)
	}
	if len(result.CreatedBlockIDs) != 1 {
		t.Fatalf("created %d blocks, want 1", len(result.CreatedBlockIDs))
	}

	block := fx.store.blocks[0]
	if !block.Span.Start.Equal(monday(8, 0)) || !block.Span.End.Equal(monday(11, 0)) {
		t.Fatalf("block span = %v, want [08:00, 11:00)", block.Span)
	}
	if block.Locked {
		t.Fatal("auto-scheduled blocks must be unlocked")
	}
}

func TestSchedulerRun_SkipsBusyTimeAndTimeOff(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]int{"item": 120})
	fx.store.blocks = append(fx.store.blocks, Block{
		ID:         "existing",
		PersonID:   "anna",
		WorkItemID: "other",
		Span:       interval.Span{Start: monday(8, 0), End: monday(9, 0)},
		Locked:     true,
	})
	fx.timeOff.spans["anna"] = []interval.Span{{Start: monday(9, 0), End: monday(10, 0)}}

	result, err := fx.scheduler.Run(context.Background(), RunParams{
		WorkItemID: "item",
		PersonID:   "anna",
		From:       monday(7, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RemainingMinutes != 0 {
		t.Fatalf("remaining = %d, want 0", result.RemainingMinutes)
	}
	if len(result.CreatedBlockIDs) != 1 {
		t.Fatalf("created %d blocks, want 1", len(result.CreatedBlockIDs))
	}

	placed := fx.store.blocks[len(fx.store.blocks)-1]
	if !placed.Span.Start.Equal(monday(10, 0)) || !placed.Span.End.Equal(monday(12, 0)) {
		t.Fatalf("block span = %v, want [10:00, 12:00)", placed.Span)
	}
}

func TestSchedulerRun_HorizonExhaustionReportsShortfall(t *testing.T) {
	t.Parallel()

	// 5 workdays of 9 placeable hours each fit 2700 minutes; ask for more.
	fx := newFixture(t, map[string]int{"item": 3600})

	result, err := fx.scheduler.Run(context.Background(), RunParams{
		WorkItemID:   "item",
		PersonID:     "anna",
		From:         monday(7, 0),
		HorizonWeeks: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.CreatedBlockIDs) != 5 {
		t.Fatalf("created %d blocks, want one per workday", len(result.CreatedBlockIDs))
	}
	if want := 3600 - 5*540; result.RemainingMinutes != want {
		t.Fatalf("remaining = %d, want %d", result.RemainingMinutes, want)
	}
}

func TestSchedulerRun_StartOnWeekendAdvancesToNextWorkday(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]int{"item": 60})
	saturday := time.Date(2025, time.March, 8, 9, 0, 0, 0, time.UTC)

	result, err := fx.scheduler.Run(context.Background(), RunParams{
		WorkItemID: "item",
		PersonID:   "anna",
		From:       saturday,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RemainingMinutes != 0 {
		t.Fatalf("remaining = %d, want 0", result.RemainingMinutes)
	}

	block := fx.store.blocks[0]
	if !block.Span.Start.Equal(monday(8, 0)) {
		t.Fatalf("block starts %v, want Monday 08:00", block.Span.Start)
	}
}

func TestSchedulerRun_MonotonicGridAlignedPlacement(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]int{"item": 1500})

	result, err := fx.scheduler.Run(context.Background(), RunParams{
		WorkItemID: "item",
		PersonID:   "anna",
		From:       monday(7, 30),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RemainingMinutes != 0 {
		t.Fatalf("remaining = %d, want 0", result.RemainingMinutes)
	}

	gridMinutes := int(interval.Grid / time.Minute)
	var prevEnd time.Time
	for i, b := range fx.store.blocks {
		minutes := b.Span.Minutes()
		if minutes < gridMinutes || minutes%gridMinutes != 0 {
			t.Fatalf("block %d spans %d minutes, not a positive grid multiple", i, minutes)
		}
		if !interval.SnapUp(b.Span.Start, interval.Grid).Equal(b.Span.Start) {
			t.Fatalf("block %d starts off-grid at %v", i, b.Span.Start)
		}
		if i > 0 && b.Span.Start.Before(prevEnd) {
			t.Fatalf("block %d starts %v before previous end %v", i, b.Span.Start, prevEnd)
		}
		prevEnd = b.Span.End
	}
}

func TestSchedulerRun_SecondRunObservesCommittedMinutes(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]int{"item": 240})

	first, err := fx.scheduler.Run(context.Background(), RunParams{
		WorkItemID: "item",
		PersonID:   "anna",
		From:       monday(7, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.RemainingMinutes != 0 || len(first.CreatedBlockIDs) != 1 {
		t.Fatalf("first run = %+v", first)
	}

	// The item is fully committed; a second run places nothing.
	second, err := fx.scheduler.Run(context.Background(), RunParams{
		WorkItemID: "item",
		PersonID:   "anna",
		From:       monday(7, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.RemainingMinutes != 0 {
		t.Fatalf("second run remaining = %d, want 0", second.RemainingMinutes)
	}
	if len(second.CreatedBlockIDs) != 0 {
		t.Fatalf("second run created %d blocks, want 0", len(second.CreatedBlockIDs))
	}
}

func TestSchedulerRun_FullyBookedDayMovesOn(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]int{"item": 120})
	fx.timeOff.spans["anna"] = []interval.Span{{
		Start: monday(0, 0),
		End:   monday(0, 0).AddDate(0, 0, 1),
	}}

	result, err := fx.scheduler.Run(context.Background(), RunParams{
		WorkItemID: "item",
		PersonID:   "anna",
		From:       monday(7, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RemainingMinutes != 0 {
		t.Fatalf("remaining = %d, want 0", result.RemainingMinutes)
	}

	tuesday := monday(8, 0).AddDate(0, 0, 1)
	block := fx.store.blocks[0]
	if !block.Span.Start.Equal(tuesday) {
		t.Fatalf("block starts %v, want Tuesday 08:00", block.Span.Start)
	}
}

func TestSchedulerRun_InvalidProfileRejected(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]int{"item": 60})
	store := fx.store
	directory := &fakeDirectory{profiles: map[string]calendar.Profile{
		"anna": {Workdays: []time.Weekday{time.Monday}, DayStart: 17 * 60, DayEnd: 8 * 60},
	}}
	scheduler := NewScheduler(directory, fx.catalog, store, fx.timeOff, nil)

	_, err := scheduler.Run(context.Background(), RunParams{WorkItemID: "item", PersonID: "anna", From: monday(7, 0)})
	if err == nil {
		t.Fatal("expected an error for an inverted day profile")
	}
}

func TestSchedulerRun_ConcurrentRunsDoNotOverlap(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]int{"item-a": 300, "item-b": 300})

	var wg sync.WaitGroup
	for _, item := range []string{"item-a", "item-b"} {
		wg.Add(1)
		go func(item string) {
			defer wg.Done()
			_, err := fx.scheduler.Run(context.Background(), RunParams{
				WorkItemID: item,
				PersonID:   "anna",
				From:       monday(7, 0),
			})
			if err != nil {
				t.Errorf("run %s failed: %v", item, err)
			}
		}(item)
	}
	wg.Wait()

	blocks := fx.store.blocks
	for i := range blocks {
		for j := i + 1; j < len(blocks); j++ {
			if blocks[i].Span.Overlaps(blocks[j].Span) {
				t.Fatalf("blocks %s and %s overlap: %v vs %v", blocks[i].ID, blocks[j].ID, blocks[i].Span, blocks[j].Span)
			}
		}
	}
}

func TestFreeIntervalsForDay(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	fx.store.blocks = append(fx.store.blocks, Block{
		ID:       "existing",
		PersonID: "anna",
		Span:     interval.Span{Start: monday(9, 0), End: monday(11, 0)},
	})
	fx.timeOff.spans["anna"] = []interval.Span{{Start: monday(14, 0), End: monday(15, 0)}}

	t.Run("workday reports the gaps", func(t *testing.T) {
		t.Parallel()

		free, err := fx.scheduler.FreeIntervalsForDay(context.Background(), "anna", monday(12, 0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []interval.Span{
			{Start: monday(8, 0), End: monday(9, 0)},
			{Start: monday(11, 0), End: monday(14, 0)},
			{Start: monday(15, 0), End: monday(17, 0)},
		}
		if len(free) != len(want) {
			t.Fatalf("got %d spans, want %d: %v", len(free), len(want), free)
		}
		for i := range want {
			if !free[i].Start.Equal(want[i].Start) || !free[i].End.Equal(want[i].End) {
				t.Fatalf("span %d = %v, want %v", i, free[i], want[i])
			}
		}
	})

	t.Run("non-workday reports nothing", func(t *testing.T) {
		t.Parallel()

		sunday := time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC)
		free, err := fx.scheduler.FreeIntervalsForDay(context.Background(), "anna", sunday)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(free) != 0 {
			t.Fatalf("expected no spans, got %v", free)
		}
	})
}
