package application

import (
	"time"

	"github.com/NescAdmin/nesc-planering/internal/capacity"
)

// ScheduleWorkItemParams wraps the data required to auto-schedule a work item
// onto one person's calendar.
type ScheduleWorkItemParams struct {
	WorkItemID   string
	PersonID     string
	From         time.Time
	HorizonWeeks int
}

// ScheduleResult captures the outcome of one auto-scheduling run. A nonzero
// RemainingMinutes means the horizon ran out before the item was covered.
type ScheduleResult struct {
	CreatedBlockIDs  []string
	RemainingMinutes int
}

// ScopeSummary reports a project's committable scope against its planned
// allocations, all in minutes.
type ScopeSummary struct {
	ProjectID          string
	Scope              int
	Planned            int
	PlannedFromPercent int
	PlannedFromMinutes int
	Over               int
}

// PercentAllocationInput captures caller provided fields for a percentage
// commitment. A nil ProjectID marks an ad-hoc allocation without project
// scope.
type PercentAllocationInput struct {
	ID        string
	ProjectID *string
	PersonID  string
	StartDate time.Time
	EndDate   time.Time
	Percent   int
	Title     string
}

// MinuteAllocationInput captures caller provided fields for an absolute
// minute commitment against a work item.
type MinuteAllocationInput struct {
	ID         string
	ProjectID  string
	WorkItemID string
	PersonID   string
	StartDate  time.Time
	EndDate    time.Time
	Minutes    int
}

// MutationStatus tells whether an allocation write was kept or undone.
type MutationStatus string

const (
	// MutationCommitted means the write is durable.
	MutationCommitted MutationStatus = "committed"
	// MutationRolledBack means the write was undone because it would push the
	// project's planned minutes past its scope.
	MutationRolledBack MutationStatus = "rolled_back"
)

// MutationOutcome reports an allocation write together with the project
// totals computed after staging it. Totals is nil for ad-hoc allocations,
// which have no project scope to check.
type MutationOutcome struct {
	Status       MutationStatus
	AllocationID string
	Totals       *ScopeSummary
	Warning      string
}

// Committed reports whether the mutation survived the scope check.
func (o MutationOutcome) Committed() bool {
	return o.Status == MutationCommitted
}

// UtilizationParams selects the grid to compute. Empty PersonIDs means every
// person; Count 0 takes the view's default column count.
type UtilizationParams struct {
	PersonIDs []string
	View      capacity.View
	Reference time.Time
	Count     int
}

// GridReport pairs the generated period columns with the computed cells.
type GridReport struct {
	Periods []capacity.Period
	Grid    capacity.Grid
}

func summaryFromTotals(projectID string, totals capacity.ScopeTotals) ScopeSummary {
	return ScopeSummary{
		ProjectID:          projectID,
		Scope:              totals.Scope,
		Planned:            totals.Planned,
		PlannedFromPercent: totals.PlannedFromPercent,
		PlannedFromMinutes: totals.PlannedFromMinutes,
		Over:               totals.Over,
	}
}
