package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/calendar"
	"github.com/NescAdmin/nesc-planering/internal/interval"
	"github.com/NescAdmin/nesc-planering/internal/persistence"
	"github.com/NescAdmin/nesc-planering/internal/schedule"
)

// PlanningService orchestrates auto-scheduling and capacity lookups on top of
// the persistence store.
type PlanningService struct {
	store        persistence.Store
	scheduler    *schedule.Scheduler
	horizonWeeks int
	breakMinutes int
	logger       *slog.Logger
}

// NewPlanningService wires dependencies for scheduling operations. Zero
// horizonWeeks and breakMinutes take the package defaults.
func NewPlanningService(store persistence.Store, idGenerator func() string, horizonWeeks, breakMinutes int, logger *slog.Logger) *PlanningService {
	if horizonWeeks <= 0 {
		horizonWeeks = schedule.DefaultHorizonWeeks
	}
	if breakMinutes <= 0 {
		breakMinutes = calendar.DefaultBreakMinutes
	}
	adapter := &storeAdapter{store: store}
	return &PlanningService{
		store:        store,
		scheduler:    schedule.NewScheduler(adapter, adapter, adapter, adapter, idGenerator),
		horizonWeeks: horizonWeeks,
		breakMinutes: breakMinutes,
		logger:       defaultLogger(logger),
	}
}

// ScheduleWorkItem places the work item's remaining minutes into the person's
// free time. A nonzero RemainingMinutes in the result is a normal outcome.
func (s *PlanningService) ScheduleWorkItem(ctx context.Context, params ScheduleWorkItemParams) (ScheduleResult, error) {
	if s == nil {
		return ScheduleResult{}, fmt.Errorf("PlanningService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "planning", "schedule_work_item",
		"work_item_id", params.WorkItemID, "person_id", params.PersonID)

	vErr := &ValidationError{}
	if params.WorkItemID == "" {
		vErr.add("work_item_id", "work item id is required")
	}
	if params.PersonID == "" {
		vErr.add("person_id", "person id is required")
	}
	if params.From.IsZero() {
		vErr.add("from", "a starting instant is required")
	}
	if vErr.HasErrors() {
		return ScheduleResult{}, vErr
	}

	horizon := params.HorizonWeeks
	if horizon <= 0 {
		horizon = s.horizonWeeks
	}

	result, err := s.scheduler.Run(ctx, schedule.RunParams{
		WorkItemID:   params.WorkItemID,
		PersonID:     params.PersonID,
		From:         params.From,
		HorizonWeeks: horizon,
	})
	if err != nil {
		logger.ErrorContext(ctx, "scheduling run failed", "error", err, "error_kind", ErrorKind(err))
		return ScheduleResult{}, mapRepoError(err)
	}

	logger.InfoContext(ctx, "scheduling run finished",
		"blocks_created", len(result.CreatedBlockIDs),
		"remaining_minutes", result.RemainingMinutes)

	return ScheduleResult{
		CreatedBlockIDs:  result.CreatedBlockIDs,
		RemainingMinutes: result.RemainingMinutes,
	}, nil
}

// FreeIntervalsForDay previews a person's open slots on one day without
// committing anything.
func (s *PlanningService) FreeIntervalsForDay(ctx context.Context, personID string, dayInstant time.Time) ([]interval.Span, error) {
	if s == nil {
		return nil, fmt.Errorf("PlanningService is nil")
	}
	free, err := s.scheduler.FreeIntervalsForDay(ctx, personID, dayInstant)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return free, nil
}

// CapacityMinutes totals a person's net working minutes across the inclusive
// date range, excluding days touched by time off.
func (s *PlanningService) CapacityMinutes(ctx context.Context, personID string, startDate, endDate time.Time) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("PlanningService is nil")
	}

	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	profile, err := personProfile(person)
	if err != nil {
		return 0, err
	}

	// Absences are stored as instants; query past the last day to catch
	// intervals starting on it.
	offs, err := s.store.ListTimeOff(ctx, personID, startDate, endDate.AddDate(0, 0, 1))
	if err != nil {
		return 0, mapRepoError(err)
	}
	spans := make([]interval.Span, 0, len(offs))
	for _, off := range offs {
		spans = append(spans, interval.Span{Start: off.Start, End: off.End})
	}

	minutes, err := calendar.CapacityMinutes(profile, startDate, endDate, spans, s.breakMinutes)
	if err != nil {
		if errors.Is(err, calendar.ErrInvalidRange) {
			return 0, ErrInvalidRange
		}
		return 0, err
	}
	return minutes, nil
}

// personProfile converts a stored person record into a calendar profile.
func personProfile(person persistence.Person) (calendar.Profile, error) {
	start, err := calendar.ParseHHMM(person.WorkStart)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("work_start", err.Error())
		return calendar.Profile{}, vErr
	}
	end, err := calendar.ParseHHMM(person.WorkEnd)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("work_end", err.Error())
		return calendar.Profile{}, vErr
	}
	return calendar.Profile{
		Workdays: person.WorkDays,
		DayStart: start,
		DayEnd:   end,
	}, nil
}

// storeAdapter narrows the persistence store to the scheduler's collaborator
// interfaces.
type storeAdapter struct {
	store persistence.Store
}

func (a *storeAdapter) GetPersonProfile(ctx context.Context, personID string) (calendar.Profile, error) {
	person, err := a.store.GetPerson(ctx, personID)
	if err != nil {
		return calendar.Profile{}, mapRepoError(err)
	}
	return personProfile(person)
}

func (a *storeAdapter) WorkItemTotalMinutes(ctx context.Context, workItemID string) (int, error) {
	item, err := a.store.GetWorkItem(ctx, workItemID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	return item.TotalMinutes, nil
}

func (a *storeAdapter) CreateBlock(ctx context.Context, block schedule.Block) (schedule.Block, error) {
	created, err := a.store.CreateTimeBlock(ctx, persistence.TimeBlock{
		ID:         block.ID,
		PersonID:   block.PersonID,
		WorkItemID: block.WorkItemID,
		Start:      block.Span.Start,
		End:        block.Span.End,
		Locked:     block.Locked,
	})
	if err != nil {
		return schedule.Block{}, mapRepoError(err)
	}
	block.ID = created.ID
	return block, nil
}

func (a *storeAdapter) BlocksInWindow(ctx context.Context, personID string, window interval.Span) ([]interval.Span, error) {
	blocks, err := a.store.ListTimeBlocks(ctx, personID, window.Start, window.End)
	if err != nil {
		return nil, mapRepoError(err)
	}
	spans := make([]interval.Span, 0, len(blocks))
	for _, b := range blocks {
		spans = append(spans, interval.Span{Start: b.Start, End: b.End})
	}
	return spans, nil
}

func (a *storeAdapter) MinutesCommitted(ctx context.Context, workItemID, personID string) (int, error) {
	blocks, err := a.store.ListTimeBlocksForWorkItem(ctx, workItemID, personID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	total := 0
	for _, b := range blocks {
		total += int(b.End.Sub(b.Start) / time.Minute)
	}
	return total, nil
}

func (a *storeAdapter) TimeOffInWindow(ctx context.Context, personID string, window interval.Span) ([]interval.Span, error) {
	offs, err := a.store.ListTimeOff(ctx, personID, window.Start, window.End)
	if err != nil {
		return nil, mapRepoError(err)
	}
	spans := make([]interval.Span, 0, len(offs))
	for _, off := range offs {
		spans = append(spans, interval.Span{Start: off.Start, End: off.End})
	}
	return spans, nil
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("reference", "related records are missing")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return ErrInvalidRange
	}
	return err
}
