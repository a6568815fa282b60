package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/calendar"
	"github.com/NescAdmin/nesc-planering/internal/capacity"
	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

// errScopeExceeded aborts the surrounding transaction; it never escapes the
// service.
var errScopeExceeded = errors.New("application: scope exceeded")

// AllocationService writes percent and minute allocations under the project
// scope check: the write is staged, planned totals are recomputed, and the
// transaction commits only when planned stays within scope or the caller set
// allowOver.
type AllocationService struct {
	store        persistence.Store
	idGenerator  func() string
	now          func() time.Time
	breakMinutes int
	logger       *slog.Logger
}

// NewAllocationService wires dependencies for allocation writes.
func NewAllocationService(store persistence.Store, idGenerator func() string, now func() time.Time, breakMinutes int, logger *slog.Logger) *AllocationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if breakMinutes <= 0 {
		breakMinutes = 60
	}
	return &AllocationService{
		store:        store,
		idGenerator:  idGenerator,
		now:          now,
		breakMinutes: breakMinutes,
		logger:       defaultLogger(logger),
	}
}

// PutPercentAllocation creates or updates a percentage commitment. Project
// scoped allocations run the scope check; ad-hoc allocations (nil ProjectID)
// have no scope and always commit.
func (s *AllocationService) PutPercentAllocation(ctx context.Context, input PercentAllocationInput, allowOver bool) (MutationOutcome, error) {
	if s == nil {
		return MutationOutcome{}, fmt.Errorf("AllocationService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "allocation", "put_percent_allocation",
		"person_id", input.PersonID)

	if err := s.validatePercentInput(ctx, input); err != nil {
		return MutationOutcome{}, err
	}

	record := persistence.PercentAllocation{
		ID:        input.ID,
		ProjectID: input.ProjectID,
		PersonID:  input.PersonID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Percent:   input.Percent,
		Title:     input.Title,
		UpdatedAt: s.now(),
	}
	if record.ID == "" {
		record.ID = s.idGenerator()
		record.CreatedAt = record.UpdatedAt
	}

	var outcome MutationOutcome
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx persistence.Store) error {
		if err := tx.UpsertPercentAllocation(ctx, record); err != nil {
			return mapRepoError(err)
		}

		outcome = MutationOutcome{Status: MutationCommitted, AllocationID: record.ID}
		if input.ProjectID == nil {
			return nil
		}

		summary, err := s.projectTotals(ctx, tx, *input.ProjectID)
		if err != nil {
			return err
		}
		outcome.Totals = &summary

		if summary.Over > 0 {
			if !allowOver {
				outcome.Status = MutationRolledBack
				outcome.AllocationID = ""
				return errScopeExceeded
			}
			outcome.Warning = fmt.Sprintf("planned %d min exceeds scope %d min", summary.Planned, summary.Scope)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errScopeExceeded) {
		return MutationOutcome{}, err
	}

	logger.InfoContext(ctx, "percent allocation written",
		"allocation_id", record.ID, "status", string(outcome.Status))
	return outcome, nil
}

// PutMinuteAllocation creates or updates a minute commitment against a work
// item, under the owning project's scope check.
func (s *AllocationService) PutMinuteAllocation(ctx context.Context, input MinuteAllocationInput, allowOver bool) (MutationOutcome, error) {
	if s == nil {
		return MutationOutcome{}, fmt.Errorf("AllocationService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "allocation", "put_minute_allocation",
		"person_id", input.PersonID, "work_item_id", input.WorkItemID)

	if err := s.validateMinuteInput(ctx, input); err != nil {
		return MutationOutcome{}, err
	}

	record := persistence.MinuteAllocation{
		ID:         input.ID,
		ProjectID:  input.ProjectID,
		WorkItemID: input.WorkItemID,
		PersonID:   input.PersonID,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Minutes:    input.Minutes,
		UpdatedAt:  s.now(),
	}
	if record.ID == "" {
		record.ID = s.idGenerator()
		record.CreatedAt = record.UpdatedAt
	}

	var outcome MutationOutcome
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx persistence.Store) error {
		if err := tx.UpsertMinuteAllocation(ctx, record); err != nil {
			return mapRepoError(err)
		}

		summary, err := s.projectTotals(ctx, tx, input.ProjectID)
		if err != nil {
			return err
		}
		outcome = MutationOutcome{Status: MutationCommitted, AllocationID: record.ID, Totals: &summary}

		if summary.Over > 0 {
			if !allowOver {
				outcome.Status = MutationRolledBack
				outcome.AllocationID = ""
				return errScopeExceeded
			}
			outcome.Warning = fmt.Sprintf("planned %d min exceeds scope %d min", summary.Planned, summary.Scope)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errScopeExceeded) {
		return MutationOutcome{}, err
	}

	logger.InfoContext(ctx, "minute allocation written",
		"allocation_id", record.ID, "status", string(outcome.Status))
	return outcome, nil
}

// DeletePercentAllocation removes a percentage commitment. Deletes only lower
// planned time and never trip the scope check.
func (s *AllocationService) DeletePercentAllocation(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("AllocationService is nil")
	}
	if err := s.store.DeletePercentAllocation(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// DeleteMinuteAllocation removes a minute commitment.
func (s *AllocationService) DeleteMinuteAllocation(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("AllocationService is nil")
	}
	if err := s.store.DeleteMinuteAllocation(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

func (s *AllocationService) validatePercentInput(ctx context.Context, input PercentAllocationInput) error {
	vErr := &ValidationError{}
	if input.PersonID == "" {
		vErr.add("person_id", "person id is required")
	}
	if input.Percent <= 0 {
		vErr.add("percent", "percent must be positive")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		vErr.add("dates", "start and end dates are required")
	} else if input.EndDate.Before(input.StartDate) {
		vErr.add("dates", "end date is before start date")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if _, err := s.store.GetPerson(ctx, input.PersonID); err != nil {
		return mapRepoError(err)
	}
	if input.ProjectID != nil {
		if _, err := s.store.GetProject(ctx, *input.ProjectID); err != nil {
			return mapRepoError(err)
		}
	}
	return nil
}

func (s *AllocationService) validateMinuteInput(ctx context.Context, input MinuteAllocationInput) error {
	vErr := &ValidationError{}
	if input.PersonID == "" {
		vErr.add("person_id", "person id is required")
	}
	if input.ProjectID == "" {
		vErr.add("project_id", "project id is required")
	}
	if input.WorkItemID == "" {
		vErr.add("work_item_id", "work item id is required")
	}
	if input.Minutes <= 0 {
		vErr.add("minutes", "minutes must be positive")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		vErr.add("dates", "start and end dates are required")
	} else if input.EndDate.Before(input.StartDate) {
		vErr.add("dates", "end date is before start date")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if _, err := s.store.GetPerson(ctx, input.PersonID); err != nil {
		return mapRepoError(err)
	}
	item, err := s.store.GetWorkItem(ctx, input.WorkItemID)
	if err != nil {
		return mapRepoError(err)
	}
	if item.ProjectID != input.ProjectID {
		vErr.add("work_item_id", "work item does not belong to the project")
		return vErr
	}
	return nil
}

// projectTotals recomputes the project's scope summary against the given
// store view, typically the transaction in flight.
func (s *AllocationService) projectTotals(ctx context.Context, store persistence.Store, projectID string) (ScopeSummary, error) {
	totals, err := computeProjectTotals(ctx, store, projectID, s.breakMinutes)
	if err != nil {
		return ScopeSummary{}, err
	}
	return summaryFromTotals(projectID, totals), nil
}

// computeProjectTotals loads the project, its work items and allocations and
// folds them into scope totals. Percent allocations are weighted by each
// person's own daily capacity.
func computeProjectTotals(ctx context.Context, store persistence.Store, projectID string, breakMinutes int) (capacity.ScopeTotals, error) {
	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		return capacity.ScopeTotals{}, mapRepoError(err)
	}

	items, err := store.ListWorkItemsForProject(ctx, projectID)
	if err != nil {
		return capacity.ScopeTotals{}, mapRepoError(err)
	}
	workItemMinutes := 0
	for _, item := range items {
		workItemMinutes += item.TotalMinutes
	}

	percentRecords, err := store.ListPercentAllocationsForProject(ctx, &projectID)
	if err != nil {
		return capacity.ScopeTotals{}, mapRepoError(err)
	}
	percent := make([]capacity.PercentAllocation, 0, len(percentRecords))
	profileCache := make(map[string]calendar.Profile)
	for _, rec := range percentRecords {
		profile, ok := profileCache[rec.PersonID]
		if !ok {
			person, err := store.GetPerson(ctx, rec.PersonID)
			if err != nil {
				return capacity.ScopeTotals{}, mapRepoError(err)
			}
			profile, err = personProfile(person)
			if err != nil {
				return capacity.ScopeTotals{}, err
			}
			profileCache[rec.PersonID] = profile
		}
		percent = append(percent, capacity.PercentAllocation{
			Range:        capacity.NewDateRange(rec.StartDate, rec.EndDate),
			Percent:      rec.Percent,
			Profile:      profile,
			BreakMinutes: breakMinutes,
		})
	}

	minuteRecords, err := store.ListMinuteAllocationsForProject(ctx, projectID)
	if err != nil {
		return capacity.ScopeTotals{}, mapRepoError(err)
	}
	minute := make([]capacity.MinuteAllocation, 0, len(minuteRecords))
	for _, rec := range minuteRecords {
		minute = append(minute, capacity.MinuteAllocation{
			Range:   capacity.NewDateRange(rec.StartDate, rec.EndDate),
			Minutes: rec.Minutes,
		})
	}

	return capacity.ComputeScopeTotals(project.BudgetMinutes, workItemMinutes, percent, minute), nil
}
