package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/persistence"
	"github.com/NescAdmin/nesc-planering/internal/persistence/memory"
	"github.com/NescAdmin/nesc-planering/internal/testfixtures"
)

func seedProjectWithScope(t *testing.T, store *memory.Store, budgetMinutes int) (personID, projectID, workItemID string) {
	t.Helper()
	ctx := context.Background()

	person := testfixtures.NewPersonFixture().Persistence()
	if err := store.CreatePerson(ctx, person); err != nil {
		t.Fatalf("seed person: %v", err)
	}

	project := testfixtures.NewProjectFixture(testfixtures.WithProjectBudget(budgetMinutes)).Persistence()
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("seed project: %v", err)
	}

	item := testfixtures.NewWorkItemFixture(project.ID, testfixtures.WithWorkItemBudget(1, 480)).Persistence()
	if err := store.CreateWorkItem(ctx, item); err != nil {
		t.Fatalf("seed work item: %v", err)
	}

	return person.ID, project.ID, item.ID
}

func newAllocationService(store *memory.Store) *AllocationService {
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("alloc")
	return NewAllocationService(store, ids.NextFunc(), clock.NowFunc(), 60, nil)
}

// date returns a civil date at midnight UTC.
func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestPutMinuteAllocation_WithinScopeCommits(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, projectID, workItemID := seedProjectWithScope(t, store, 600)
	service := newAllocationService(store)

	outcome, err := service.PutMinuteAllocation(context.Background(), MinuteAllocationInput{
		ProjectID:  projectID,
		WorkItemID: workItemID,
		PersonID:   personID,
		StartDate:  date(2025, time.March, 10),
		EndDate:    date(2025, time.March, 14),
		Minutes:    400,
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !outcome.Committed() {
		t.Fatalf("outcome = %+v, want committed", outcome)
	}
	if outcome.Totals == nil {
		t.Fatal("expected totals on a project-scoped write")
	}
	if outcome.Totals.Planned != 400 || outcome.Totals.Over != 0 {
		t.Fatalf("totals = %+v, want planned 400 over 0", outcome.Totals)
	}

	if _, err := store.GetMinuteAllocation(context.Background(), outcome.AllocationID); err != nil {
		t.Fatalf("committed allocation not stored: %v", err)
	}
}

func TestPutMinuteAllocation_OverScopeRollsBack(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, projectID, workItemID := seedProjectWithScope(t, store, 600)
	service := newAllocationService(store)
	ctx := context.Background()

	first, err := service.PutMinuteAllocation(ctx, MinuteAllocationInput{
		ProjectID:  projectID,
		WorkItemID: workItemID,
		PersonID:   personID,
		StartDate:  date(2025, time.March, 10),
		EndDate:    date(2025, time.March, 14),
		Minutes:    400,
	}, false)
	if err != nil || !first.Committed() {
		t.Fatalf("seed allocation failed: %+v, %v", first, err)
	}

	// 400 + 300 = 700 against a 600 minute scope.
	second, err := service.PutMinuteAllocation(ctx, MinuteAllocationInput{
		ProjectID:  projectID,
		WorkItemID: workItemID,
		PersonID:   personID,
		StartDate:  date(2025, time.March, 17),
		EndDate:    date(2025, time.March, 21),
		Minutes:    300,
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Committed() {
		t.Fatalf("outcome = %+v, want rolled back", second)
	}
	if second.Totals == nil {
		t.Fatal("expected totals on rejection")
	}
	if second.Totals.Scope != 600 || second.Totals.Planned != 700 || second.Totals.Over != 100 {
		t.Fatalf("totals = %+v, want scope 600 planned 700 over 100", second.Totals)
	}

	// The staged write must be gone.
	allocs, err := store.ListMinuteAllocationsForProject(ctx, projectID)
	if err != nil {
		t.Fatalf("list allocations: %v", err)
	}
	if len(allocs) != 1 {
		t.Fatalf("store holds %d allocations after rollback, want 1", len(allocs))
	}
}

func TestPutMinuteAllocation_AllowOverCommitsWithWarning(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, projectID, workItemID := seedProjectWithScope(t, store, 600)
	service := newAllocationService(store)
	ctx := context.Background()

	outcome, err := service.PutMinuteAllocation(ctx, MinuteAllocationInput{
		ProjectID:  projectID,
		WorkItemID: workItemID,
		PersonID:   personID,
		StartDate:  date(2025, time.March, 10),
		EndDate:    date(2025, time.March, 14),
		Minutes:    700,
	}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !outcome.Committed() {
		t.Fatalf("outcome = %+v, want committed", outcome)
	}
	if outcome.Warning == "" {
		t.Fatal("expected an over-scope warning")
	}
	if outcome.Totals.Over != 100 {
		t.Fatalf("over = %d, want 100", outcome.Totals.Over)
	}
}

func TestPutPercentAllocation_AdHocSkipsScopeCheck(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, _, _ := seedProjectWithScope(t, store, 600)
	service := newAllocationService(store)

	outcome, err := service.PutPercentAllocation(context.Background(), PercentAllocationInput{
		PersonID:  personID,
		StartDate: date(2025, time.March, 10),
		EndDate:   date(2025, time.March, 14),
		Percent:   150,
		Title:     "Drift",
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !outcome.Committed() {
		t.Fatalf("outcome = %+v, want committed", outcome)
	}
	if outcome.Totals != nil {
		t.Fatalf("ad-hoc allocation carried totals: %+v", outcome.Totals)
	}
}

func TestPutPercentAllocation_ProjectScoped(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, projectID, _ := seedProjectWithScope(t, store, 0)
	service := newAllocationService(store)

	// Scope falls back to the work-item sum (480). 50% of five default
	// workdays plans 1200 minutes.
	outcome, err := service.PutPercentAllocation(context.Background(), PercentAllocationInput{
		ProjectID: &projectID,
		PersonID:  personID,
		StartDate: date(2025, time.March, 10),
		EndDate:   date(2025, time.March, 14),
		Percent:   50,
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Committed() {
		t.Fatalf("outcome = %+v, want rolled back", outcome)
	}
	if outcome.Totals.Scope != 480 || outcome.Totals.PlannedFromPercent != 1200 {
		t.Fatalf("totals = %+v, want scope 480 planned-from-percent 1200", outcome.Totals)
	}
}

func TestPutMinuteAllocation_ValidationErrors(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, projectID, workItemID := seedProjectWithScope(t, store, 600)
	service := newAllocationService(store)

	cases := []struct {
		name  string
		input MinuteAllocationInput
		field string
	}{
		{
			name: "missing person",
			input: MinuteAllocationInput{
				ProjectID: projectID, WorkItemID: workItemID,
				StartDate: date(2025, time.March, 10), EndDate: date(2025, time.March, 14),
				Minutes: 100,
			},
			field: "person_id",
		},
		{
			name: "non-positive minutes",
			input: MinuteAllocationInput{
				ProjectID: projectID, WorkItemID: workItemID, PersonID: personID,
				StartDate: date(2025, time.March, 10), EndDate: date(2025, time.March, 14),
			},
			field: "minutes",
		},
		{
			name: "inverted dates",
			input: MinuteAllocationInput{
				ProjectID: projectID, WorkItemID: workItemID, PersonID: personID,
				StartDate: date(2025, time.March, 14), EndDate: date(2025, time.March, 10),
				Minutes: 100,
			},
			field: "dates",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := service.PutMinuteAllocation(context.Background(), tc.input, false)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected field %q in %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestPutMinuteAllocation_UnknownWorkItem(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, projectID, _ := seedProjectWithScope(t, store, 600)
	service := newAllocationService(store)

	_, err := service.PutMinuteAllocation(context.Background(), MinuteAllocationInput{
		ProjectID:  projectID,
		WorkItemID: "missing",
		PersonID:   personID,
		StartDate:  date(2025, time.March, 10),
		EndDate:    date(2025, time.March, 14),
		Minutes:    100,
	}, false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAllocations(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, projectID, workItemID := seedProjectWithScope(t, store, 600)
	service := newAllocationService(store)
	ctx := context.Background()

	outcome, err := service.PutMinuteAllocation(ctx, MinuteAllocationInput{
		ProjectID:  projectID,
		WorkItemID: workItemID,
		PersonID:   personID,
		StartDate:  date(2025, time.March, 10),
		EndDate:    date(2025, time.March, 14),
		Minutes:    400,
	}, false)
	if err != nil || !outcome.Committed() {
		t.Fatalf("seed allocation failed: %+v, %v", outcome, err)
	}

	if err := service.DeleteMinuteAllocation(ctx, outcome.AllocationID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetMinuteAllocation(ctx, outcome.AllocationID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected allocation gone, got %v", err)
	}

	if err := service.DeleteMinuteAllocation(ctx, outcome.AllocationID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
