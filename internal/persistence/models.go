package persistence

import "time"

// Person represents a planning resource with its work-time profile. Work
// times are stored as "HH:MM" wall-clock strings and the workday set as Go
// weekdays.
type Person struct {
	ID        string
	Name      string
	WorkStart string
	WorkEnd   string
	WorkDays  []time.Weekday
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeOff is an absence interval attached to a person.
type TimeOff struct {
	ID        string
	PersonID  string
	Start     time.Time
	End       time.Time
	Kind      string
	Note      string
	CreatedAt time.Time
}

// TimeBlock is a committed [Start, End) slice of a person's day assigned to
// one work item. Blocks are immutable once created; locked blocks are never
// reassigned but still occupy time.
type TimeBlock struct {
	ID         string
	PersonID   string
	WorkItemID string
	Start      time.Time
	End        time.Time
	Locked     bool
	CreatedAt  time.Time
}

// Project groups work items under a single scope. A positive BudgetMinutes
// overrides the work-item sum as the project's committable scope.
type Project struct {
	ID            string
	Name          string
	BudgetMinutes int
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WorkItem is a deliverable with a fixed minute budget.
type WorkItem struct {
	ID             string
	ProjectID      string
	Title          string
	Quantity       int
	MinutesPerUnit int
	TotalMinutes   int
	Deadline       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PercentAllocation commits a percentage of a person's capacity across an
// inclusive date range. A nil ProjectID marks an ad-hoc allocation without a
// project scope.
type PercentAllocation struct {
	ID        string
	ProjectID *string
	PersonID  string
	StartDate time.Time
	EndDate   time.Time
	Percent   int
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MinuteAllocation plans an absolute number of minutes of a work item for a
// person across an inclusive date range.
type MinuteAllocation struct {
	ID         string
	ProjectID  string
	WorkItemID string
	PersonID   string
	StartDate  time.Time
	EndDate    time.Time
	Minutes    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
