// Package schedule implements greedy, horizon-bounded auto-scheduling: it
// fills a work item's remaining minutes into a person's free time, one
// grid-aligned block per day, walking forward until the item is covered or
// the horizon runs out.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/calendar"
	"github.com/NescAdmin/nesc-planering/internal/interval"
)

// DefaultHorizonWeeks bounds the forward search when the caller does not
// override it.
const DefaultHorizonWeeks = 12

// Blocks on non-workdays are skipped by jumping to this hour on the next
// calendar day.
const nonWorkdayResumeHour = 8

// Block is a committed slice of a person's day tied to one work item.
type Block struct {
	ID         string
	PersonID   string
	WorkItemID string
	Span       interval.Span
	Locked     bool
}

// PersonDirectory resolves a person's work-time profile.
type PersonDirectory interface {
	GetPersonProfile(ctx context.Context, personID string) (calendar.Profile, error)
}

// WorkItemCatalog resolves a work item's total minute budget.
type WorkItemCatalog interface {
	WorkItemTotalMinutes(ctx context.Context, workItemID string) (int, error)
}

// BlockStore persists committed blocks and answers busy-time queries. Every
// CreateBlock call must be durable before it returns so a concurrent reader
// observes previously placed blocks.
type BlockStore interface {
	CreateBlock(ctx context.Context, block Block) (Block, error)
	// BlocksInWindow returns the person's blocks overlapping the window,
	// locked or not; both occupy time.
	BlocksInWindow(ctx context.Context, personID string, window interval.Span) ([]interval.Span, error)
	// MinutesCommitted totals the minutes of every block tying the work item
	// to the person.
	MinutesCommitted(ctx context.Context, workItemID, personID string) (int, error)
}

// TimeOffSource answers absence queries.
type TimeOffSource interface {
	TimeOffInWindow(ctx context.Context, personID string, window interval.Span) ([]interval.Span, error)
}

// Scheduler places blocks for one (work item, person) pair at a time.
// Concurrent runs for the same person are serialized through a keyed mutex so
// the read-then-append pattern on busy intervals cannot double-book.
type Scheduler struct {
	persons PersonDirectory
	items   WorkItemCatalog
	blocks  BlockStore
	timeOff TimeOffSource

	idGenerator func() string
	grid        time.Duration
	locks       *keyedMutex
}

// NewScheduler wires the scheduler's collaborators. A nil idGenerator yields
// empty block IDs, leaving assignment to the store.
func NewScheduler(persons PersonDirectory, items WorkItemCatalog, blocks BlockStore, timeOff TimeOffSource, idGenerator func() string) *Scheduler {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &Scheduler{
		persons:     persons,
		items:       items,
		blocks:      blocks,
		timeOff:     timeOff,
		idGenerator: idGenerator,
		grid:        interval.Grid,
		locks:       newKeyedMutex(),
	}
}

// RunParams identifies one scheduling request.
type RunParams struct {
	WorkItemID   string
	PersonID     string
	From         time.Time
	HorizonWeeks int
}

// Result reports the outcome of a scheduling run. A nonzero
// RemainingMinutes means the horizon was exhausted before the item was fully
// covered; that is a normal outcome, not an error.
type Result struct {
	CreatedBlockIDs  []string
	RemainingMinutes int
}

// Run places blocks for the work item into the person's free time starting at
// params.From, until the item's remaining minutes reach zero or the horizon
// ends. Each created block is persisted before the next day's busy set is
// read.
func (s *Scheduler) Run(ctx context.Context, params RunParams) (Result, error) {
	if s == nil {
		return Result{}, fmt.Errorf("schedule: Scheduler is nil")
	}
	if params.HorizonWeeks <= 0 {
		params.HorizonWeeks = DefaultHorizonWeeks
	}

	profile, err := s.persons.GetPersonProfile(ctx, params.PersonID)
	if err != nil {
		return Result{}, err
	}
	if err := profile.Validate(); err != nil {
		return Result{}, err
	}

	total, err := s.items.WorkItemTotalMinutes(ctx, params.WorkItemID)
	if err != nil {
		return Result{}, err
	}

	s.locks.Lock(params.PersonID)
	defer s.locks.Unlock(params.PersonID)

	committed, err := s.blocks.MinutesCommitted(ctx, params.WorkItemID, params.PersonID)
	if err != nil {
		return Result{}, err
	}
	remaining := total - committed
	if remaining < 0 {
		remaining = 0
	}

	cursor := interval.SnapUp(params.From, s.grid)
	horizonEnd := cursor.AddDate(0, 0, 7*params.HorizonWeeks)

	createdIDs := make([]string, 0)

	for remaining > 0 && cursor.Before(horizonEnd) {
		if err := ctx.Err(); err != nil {
			return Result{CreatedBlockIDs: createdIDs, RemainingMinutes: remaining}, err
		}

		if !profile.IsWorkday(cursor) {
			cursor = calendar.StartOfDay(cursor).AddDate(0, 0, 1).Add(nonWorkdayResumeHour * time.Hour)
			continue
		}

		bounds := profile.DayBounds(cursor)
		if cursor.Before(bounds.Start) {
			cursor = bounds.Start
		}
		if !cursor.Before(bounds.End) {
			cursor = bounds.Start.AddDate(0, 0, 1)
			continue
		}

		free, err := s.freeForDay(ctx, params.PersonID, bounds)
		if err != nil {
			return Result{CreatedBlockIDs: createdIDs, RemainingMinutes: remaining}, err
		}

		block, placed, err := s.placeFirstFit(ctx, params, free, cursor, remaining)
		if err != nil {
			return Result{CreatedBlockIDs: createdIDs, RemainingMinutes: remaining}, err
		}
		if !placed {
			cursor = bounds.Start.AddDate(0, 0, 1)
			continue
		}

		createdIDs = append(createdIDs, block.ID)
		remaining -= block.Span.Minutes()
		cursor = block.Span.End
	}

	return Result{CreatedBlockIDs: createdIDs, RemainingMinutes: remaining}, nil
}

// placeFirstFit commits at most one block into the first free span that
// leaves room for a whole grid unit at or after the cursor.
func (s *Scheduler) placeFirstFit(ctx context.Context, params RunParams, free []interval.Span, cursor time.Time, remaining int) (Block, bool, error) {
	gridMinutes := int(s.grid / time.Minute)

	for _, span := range free {
		start := span.Start
		if cursor.After(start) {
			start = cursor
		}
		start = interval.SnapUp(start, s.grid)
		if !start.Before(span.End) {
			continue
		}

		available := int(span.End.Sub(start) / time.Minute)
		available = available / gridMinutes * gridMinutes
		if available <= 0 {
			continue
		}

		blockMinutes := remaining
		if available < blockMinutes {
			blockMinutes = available
		}
		blockMinutes = blockMinutes / gridMinutes * gridMinutes
		if blockMinutes <= 0 {
			continue
		}

		block := Block{
			ID:         s.idGenerator(),
			PersonID:   params.PersonID,
			WorkItemID: params.WorkItemID,
			Span: interval.Span{
				Start: start,
				End:   start.Add(time.Duration(blockMinutes) * time.Minute),
			},
		}
		created, err := s.blocks.CreateBlock(ctx, block)
		if err != nil {
			return Block{}, false, err
		}
		return created, true, nil
	}

	return Block{}, false, nil
}

// FreeIntervalsForDay reports the person's free spans inside the workday
// bounds of the day containing dayInstant. A non-workday yields no spans.
func (s *Scheduler) FreeIntervalsForDay(ctx context.Context, personID string, dayInstant time.Time) ([]interval.Span, error) {
	if s == nil {
		return nil, fmt.Errorf("schedule: Scheduler is nil")
	}

	profile, err := s.persons.GetPersonProfile(ctx, personID)
	if err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if !profile.IsWorkday(dayInstant) {
		return nil, nil
	}

	return s.freeForDay(ctx, personID, profile.DayBounds(dayInstant))
}

func (s *Scheduler) freeForDay(ctx context.Context, personID string, bounds interval.Span) ([]interval.Span, error) {
	busy, err := s.blocks.BlocksInWindow(ctx, personID, bounds)
	if err != nil {
		return nil, err
	}
	offs, err := s.timeOff.TimeOffInWindow(ctx, personID, bounds)
	if err != nil {
		return nil, err
	}
	busy = append(busy, offs...)

	return interval.Free(bounds, busy), nil
}
