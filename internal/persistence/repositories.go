package persistence

import (
	"context"
	"time"
)

// PersonRepository exposes CRUD operations for planning resources.
type PersonRepository interface {
	CreatePerson(ctx context.Context, person Person) error
	UpdatePerson(ctx context.Context, person Person) error
	GetPerson(ctx context.Context, id string) (Person, error)
	ListPersons(ctx context.Context) ([]Person, error)
	DeletePerson(ctx context.Context, id string) error
}

// TimeOffRepository stores absence intervals.
type TimeOffRepository interface {
	CreateTimeOff(ctx context.Context, off TimeOff) error
	DeleteTimeOff(ctx context.Context, id string) error
	// ListTimeOff returns the person's absences overlapping the half-open
	// [start, end) window, ordered by start ascending.
	ListTimeOff(ctx context.Context, personID string, start, end time.Time) ([]TimeOff, error)
}

// TimeBlockRepository stores committed schedule blocks. Blocks are created
// and deleted, never updated in place.
type TimeBlockRepository interface {
	CreateTimeBlock(ctx context.Context, block TimeBlock) (TimeBlock, error)
	DeleteTimeBlock(ctx context.Context, id string) error
	// ListTimeBlocks returns the person's blocks overlapping the half-open
	// [start, end) window, ordered by start ascending.
	ListTimeBlocks(ctx context.Context, personID string, start, end time.Time) ([]TimeBlock, error)
	// ListTimeBlocksForWorkItem returns every block tying the work item to
	// the person, ordered by start ascending.
	ListTimeBlocksForWorkItem(ctx context.Context, workItemID, personID string) ([]TimeBlock, error)
}

// ProjectRepository exposes CRUD operations for projects.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project Project) error
	UpdateProject(ctx context.Context, project Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// WorkItemRepository stores project scope lines.
type WorkItemRepository interface {
	CreateWorkItem(ctx context.Context, item WorkItem) error
	UpdateWorkItem(ctx context.Context, item WorkItem) error
	GetWorkItem(ctx context.Context, id string) (WorkItem, error)
	ListWorkItemsForProject(ctx context.Context, projectID string) ([]WorkItem, error)
	DeleteWorkItem(ctx context.Context, id string) error
}

// AllocationRepository stores both allocation kinds.
type AllocationRepository interface {
	UpsertPercentAllocation(ctx context.Context, alloc PercentAllocation) error
	GetPercentAllocation(ctx context.Context, id string) (PercentAllocation, error)
	DeletePercentAllocation(ctx context.Context, id string) error
	// ListPercentAllocationsForProject returns a project's percent
	// allocations; pass nil to list ad-hoc allocations without a project.
	ListPercentAllocationsForProject(ctx context.Context, projectID *string) ([]PercentAllocation, error)
	// ListPercentAllocations returns every percent allocation for the person
	// whose inclusive date range overlaps [start, end].
	ListPercentAllocations(ctx context.Context, personID string, start, end time.Time) ([]PercentAllocation, error)

	UpsertMinuteAllocation(ctx context.Context, alloc MinuteAllocation) error
	GetMinuteAllocation(ctx context.Context, id string) (MinuteAllocation, error)
	DeleteMinuteAllocation(ctx context.Context, id string) error
	ListMinuteAllocationsForProject(ctx context.Context, projectID string) ([]MinuteAllocation, error)
	// ListMinuteAllocations returns every minute allocation for the person
	// whose inclusive date range overlaps [start, end].
	ListMinuteAllocations(ctx context.Context, personID string, start, end time.Time) ([]MinuteAllocation, error)
}

// Store aggregates every repository plus transactional execution.
type Store interface {
	PersonRepository
	TimeOffRepository
	TimeBlockRepository
	ProjectRepository
	WorkItemRepository
	AllocationRepository

	// InTransaction runs fn against a transactional view of the store. When
	// fn returns an error every write staged inside it is rolled back;
	// otherwise the writes commit atomically.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Close() error
}
