package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/capacity"
	"github.com/NescAdmin/nesc-planering/internal/persistence"
	"github.com/NescAdmin/nesc-planering/internal/persistence/memory"
	"github.com/NescAdmin/nesc-planering/internal/testfixtures"
)

func newReportService(store *memory.Store) *ReportService {
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	return NewReportService(store, clock.NowFunc(), 60, nil)
}

func TestProjectScopeSummary(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, projectID, workItemID := seedProjectWithScope(t, store, 600)
	service := newReportService(store)
	ctx := context.Background()

	if err := store.UpsertMinuteAllocation(ctx, persistence.MinuteAllocation{
		ID:         "m-1",
		ProjectID:  projectID,
		WorkItemID: workItemID,
		PersonID:   personID,
		StartDate:  date(2025, time.March, 10),
		EndDate:    date(2025, time.March, 14),
		Minutes:    400,
	}); err != nil {
		t.Fatalf("seed allocation: %v", err)
	}

	summary, err := service.ProjectScopeSummary(ctx, projectID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Scope != 600 {
		t.Fatalf("scope = %d, want budget override 600", summary.Scope)
	}
	if summary.Planned != 400 || summary.PlannedFromMinutes != 400 || summary.PlannedFromPercent != 0 {
		t.Fatalf("summary = %+v, want planned 400 from minutes", summary)
	}
	if summary.Over != 0 {
		t.Fatalf("over = %d, want 0", summary.Over)
	}
}

func TestProjectScopeSummary_UnknownProject(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	service := newReportService(store)

	_, err := service.ProjectScopeSummary(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUtilizationGridService(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, projectID, workItemID := seedProjectWithScope(t, store, 0)
	service := newReportService(store)
	ctx := context.Background()

	weekStart := date(2025, time.March, 10)
	weekEnd := date(2025, time.March, 14)

	if err := store.UpsertPercentAllocation(ctx, persistence.PercentAllocation{
		ID:        "p-1",
		ProjectID: &projectID,
		PersonID:  personID,
		StartDate: weekStart,
		EndDate:   weekEnd,
		Percent:   40,
	}); err != nil {
		t.Fatalf("seed percent allocation: %v", err)
	}
	if err := store.UpsertPercentAllocation(ctx, persistence.PercentAllocation{
		ID:        "p-2",
		PersonID:  personID,
		StartDate: weekStart,
		EndDate:   weekEnd,
		Percent:   10,
		Title:     "Drift",
	}); err != nil {
		t.Fatalf("seed ad-hoc allocation: %v", err)
	}
	// 1200 minutes against the week's 2400-minute capacity converts to 50%.
	if err := store.UpsertMinuteAllocation(ctx, persistence.MinuteAllocation{
		ID:         "m-1",
		ProjectID:  projectID,
		WorkItemID: workItemID,
		PersonID:   personID,
		StartDate:  weekStart,
		EndDate:    weekEnd,
		Minutes:    1200,
	}); err != nil {
		t.Fatalf("seed minute allocation: %v", err)
	}

	report, err := service.UtilizationGrid(ctx, UtilizationParams{
		View:      capacity.ViewWeek,
		Reference: weekStart,
		Count:     1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Periods) != 1 {
		t.Fatalf("got %d periods, want 1", len(report.Periods))
	}
	if report.Periods[0].Label != "v11" {
		t.Fatalf("period label = %q, want v11", report.Periods[0].Label)
	}

	cell := report.Grid.Cells[capacity.CellKey{PersonID: personID, PeriodIndex: 0}]
	if cell != 100 {
		t.Fatalf("cell = %d%%, want 100%%", cell)
	}
	if report.Grid.RowPeak[personID] != 100 {
		t.Fatalf("row peak = %d, want 100", report.Grid.RowPeak[personID])
	}
}

func TestUtilizationGridService_SelectsPersons(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	personID, _, _ := seedProjectWithScope(t, store, 0)
	other := testfixtures.NewPersonFixture().Persistence()
	if err := store.CreatePerson(context.Background(), other); err != nil {
		t.Fatalf("seed person: %v", err)
	}
	service := newReportService(store)

	report, err := service.UtilizationGrid(context.Background(), UtilizationParams{
		PersonIDs: []string{personID},
		View:      capacity.ViewWeek,
		Reference: date(2025, time.March, 10),
		Count:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := report.Grid.RowAverage[other.ID]; ok {
		t.Fatalf("grid includes unselected person %s", other.ID)
	}
	if _, ok := report.Grid.RowAverage[personID]; !ok {
		t.Fatal("grid misses the selected person")
	}
}
