package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/persistence"
	"github.com/NescAdmin/nesc-planering/internal/testfixtures"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "planner_test.db")
	store, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func seedPerson(t *testing.T, store *Store) persistence.Person {
	t.Helper()
	person := testfixtures.NewPersonFixture().Persistence()
	if err := store.CreatePerson(context.Background(), person); err != nil {
		t.Fatalf("seed person: %v", err)
	}
	return person
}

func seedProjectWithItem(t *testing.T, store *Store) (persistence.Project, persistence.WorkItem) {
	t.Helper()
	ctx := context.Background()

	project := testfixtures.NewProjectFixture().Persistence()
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	item := testfixtures.NewWorkItemFixture(project.ID).Persistence()
	if err := store.CreateWorkItem(ctx, item); err != nil {
		t.Fatalf("seed work item: %v", err)
	}
	return project, item
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	dsn := "file:" + filepath.Join(t.TempDir(), "planner_test.db")
	ctx := context.Background()

	first, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	person := seedPerson(t, first)
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	got, err := second.GetPerson(ctx, person.ID)
	if err != nil {
		t.Fatalf("get person after reopen: %v", err)
	}
	if got.Name != person.Name {
		t.Fatalf("expected name %q, got %q", person.Name, got.Name)
	}
}

func TestPersonRoundTrip(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	person := seedPerson(t, store)

	got, err := store.GetPerson(ctx, person.ID)
	if err != nil {
		t.Fatalf("get person: %v", err)
	}
	if got.WorkStart != person.WorkStart || got.WorkEnd != person.WorkEnd {
		t.Fatalf("work times mismatch: got %q-%q", got.WorkStart, got.WorkEnd)
	}
	if len(got.WorkDays) != len(person.WorkDays) {
		t.Fatalf("expected %d workdays, got %d", len(person.WorkDays), len(got.WorkDays))
	}
	for i, d := range person.WorkDays {
		if got.WorkDays[i] != d {
			t.Fatalf("workday %d mismatch: got %v, want %v", i, got.WorkDays[i], d)
		}
	}
	if !got.CreatedAt.Equal(person.CreatedAt.UTC().Truncate(time.Second)) {
		t.Fatalf("created_at mismatch: got %v, want %v", got.CreatedAt, person.CreatedAt)
	}

	if err := store.CreatePerson(ctx, person); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated insert, got %v", err)
	}

	if err := store.DeletePerson(ctx, person.ID); err != nil {
		t.Fatalf("delete person: %v", err)
	}
	if _, err := store.GetPerson(ctx, person.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.UpdatePerson(ctx, person); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating a deleted person, got %v", err)
	}
}

func TestTimeOffConstraints(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	person := seedPerson(t, store)

	day := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)

	orphan := persistence.TimeOff{
		ID: "off-orphan", PersonID: "missing",
		Start: day, End: day.AddDate(0, 0, 1), CreatedAt: day,
	}
	if err := store.CreateTimeOff(ctx, orphan); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}

	inverted := persistence.TimeOff{
		ID: "off-inverted", PersonID: person.ID,
		Start: day.AddDate(0, 0, 1), End: day, CreatedAt: day,
	}
	if err := store.CreateTimeOff(ctx, inverted); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}

	valid := persistence.TimeOff{
		ID: "off-1", PersonID: person.ID,
		Start: day, End: day.AddDate(0, 0, 1), Kind: "vacation", CreatedAt: day,
	}
	if err := store.CreateTimeOff(ctx, valid); err != nil {
		t.Fatalf("create time off: %v", err)
	}

	// The window query uses half-open semantics.
	offs, err := store.ListTimeOff(ctx, person.ID, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("list time off: %v", err)
	}
	if len(offs) != 0 {
		t.Fatalf("expected no overlap with adjacent window, got %d", len(offs))
	}

	offs, err = store.ListTimeOff(ctx, person.ID, day.Add(12*time.Hour), day.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("list time off: %v", err)
	}
	if len(offs) != 1 || offs[0].Kind != "vacation" {
		t.Fatalf("expected the vacation entry, got %+v", offs)
	}
}

func TestTimeBlockQueries(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	person := seedPerson(t, store)
	_, item := seedProjectWithItem(t, store)

	base := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	for i, span := range []struct{ start, end time.Time }{
		{base.Add(3 * time.Hour), base.Add(4 * time.Hour)},
		{base, base.Add(2 * time.Hour)},
	} {
		block := persistence.TimeBlock{
			ID: "block-" + string(rune('a'+i)), PersonID: person.ID, WorkItemID: item.ID,
			Start: span.start, End: span.end, CreatedAt: base,
		}
		if _, err := store.CreateTimeBlock(ctx, block); err != nil {
			t.Fatalf("create block: %v", err)
		}
	}

	blocks, err := store.ListTimeBlocks(ctx, person.ID, base, base.Add(8*time.Hour))
	if err != nil {
		t.Fatalf("list blocks: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if !blocks[0].Start.Before(blocks[1].Start) {
		t.Fatalf("blocks are not ordered by start: %v, %v", blocks[0].Start, blocks[1].Start)
	}

	byItem, err := store.ListTimeBlocksForWorkItem(ctx, item.ID, person.ID)
	if err != nil {
		t.Fatalf("list blocks by work item: %v", err)
	}
	if len(byItem) != 2 {
		t.Fatalf("expected 2 blocks for the work item, got %d", len(byItem))
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	person := seedPerson(t, store)
	project, item := seedProjectWithItem(t, store)

	alloc := persistence.MinuteAllocation{
		ID: "m-1", ProjectID: project.ID, WorkItemID: item.ID, PersonID: person.ID,
		StartDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
		Minutes:   300,
		CreatedAt: testfixtures.ReferenceTime(), UpdatedAt: testfixtures.ReferenceTime(),
	}
	if err := store.UpsertMinuteAllocation(ctx, alloc); err != nil {
		t.Fatalf("upsert minute allocation: %v", err)
	}

	if err := store.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	if _, err := store.GetWorkItem(ctx, item.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected work item to cascade, got %v", err)
	}
	if _, err := store.GetMinuteAllocation(ctx, alloc.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected minute allocation to cascade, got %v", err)
	}
}

func TestPercentAllocationUpsertAndScoping(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	person := seedPerson(t, store)
	project, _ := seedProjectWithItem(t, store)

	ref := testfixtures.ReferenceTime()
	start := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)

	scoped := persistence.PercentAllocation{
		ID: "p-1", ProjectID: &project.ID, PersonID: person.ID,
		StartDate: start, EndDate: end, Percent: 40, Title: "Design",
		CreatedAt: ref, UpdatedAt: ref,
	}
	adHoc := persistence.PercentAllocation{
		ID: "p-2", PersonID: person.ID,
		StartDate: start, EndDate: end, Percent: 10, Title: "Support",
		CreatedAt: ref, UpdatedAt: ref,
	}
	for _, a := range []persistence.PercentAllocation{scoped, adHoc} {
		if err := store.UpsertPercentAllocation(ctx, a); err != nil {
			t.Fatalf("upsert %s: %v", a.ID, err)
		}
	}

	// Upserting again keeps created_at and applies the new percent.
	scoped.Percent = 60
	scoped.UpdatedAt = ref.Add(time.Hour)
	if err := store.UpsertPercentAllocation(ctx, scoped); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err := store.GetPercentAllocation(ctx, scoped.ID)
	if err != nil {
		t.Fatalf("get percent allocation: %v", err)
	}
	if got.Percent != 60 {
		t.Fatalf("expected percent 60 after upsert, got %d", got.Percent)
	}
	if !got.CreatedAt.Equal(ref.Truncate(time.Second)) {
		t.Fatalf("created_at changed on upsert: %v", got.CreatedAt)
	}
	if got.ProjectID == nil || *got.ProjectID != project.ID {
		t.Fatalf("project id lost on round trip: %v", got.ProjectID)
	}

	forProject, err := store.ListPercentAllocationsForProject(ctx, &project.ID)
	if err != nil {
		t.Fatalf("list for project: %v", err)
	}
	if len(forProject) != 1 || forProject[0].ID != scoped.ID {
		t.Fatalf("expected only the scoped allocation, got %+v", forProject)
	}

	adHocOnly, err := store.ListPercentAllocationsForProject(ctx, nil)
	if err != nil {
		t.Fatalf("list ad-hoc: %v", err)
	}
	if len(adHocOnly) != 1 || adHocOnly[0].ID != adHoc.ID {
		t.Fatalf("expected only the ad-hoc allocation, got %+v", adHocOnly)
	}

	// Inclusive date overlap.
	overlapping, err := store.ListPercentAllocations(ctx, person.ID, end, end.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("list overlapping: %v", err)
	}
	if len(overlapping) != 2 {
		t.Fatalf("expected both allocations to overlap on the boundary day, got %d", len(overlapping))
	}
}

func TestInTransaction(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	person := seedPerson(t, store)

	errBoom := errors.New("boom")
	off := persistence.TimeOff{
		ID: "off-tx", PersonID: person.ID,
		Start: time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC),
		CreatedAt: testfixtures.ReferenceTime(),
	}

	err := store.InTransaction(ctx, func(ctx context.Context, tx persistence.Store) error {
		if err := tx.CreateTimeOff(ctx, off); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected the transaction error to propagate, got %v", err)
	}
	if err := store.DeleteTimeOff(ctx, off.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected rollback to discard the write, got %v", err)
	}

	err = store.InTransaction(ctx, func(ctx context.Context, tx persistence.Store) error {
		return tx.CreateTimeOff(ctx, off)
	})
	if err != nil {
		t.Fatalf("committing transaction: %v", err)
	}
	offs, err := store.ListTimeOff(ctx, person.ID, off.Start, off.End)
	if err != nil {
		t.Fatalf("list time off: %v", err)
	}
	if len(offs) != 1 {
		t.Fatalf("expected the committed write to be visible, got %d entries", len(offs))
	}
}
