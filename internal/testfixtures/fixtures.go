package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

var (
	personCounter   uint64
	projectCounter  uint64
	workItemCounter uint64
)

var referenceTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures: a
// Monday morning.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Person fixtures ----------------------------

// PersonFixture represents a deterministic planning resource.
type PersonFixture struct {
	ID        string
	Name      string
	WorkStart string
	WorkEnd   string
	WorkDays  []time.Weekday
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PersonOption customises a person fixture.
type PersonOption func(*PersonFixture)

// NewPersonFixture builds a Mon-Fri 08:00-17:00 person with a unique id.
func NewPersonFixture(opts ...PersonOption) PersonFixture {
	n := atomic.AddUint64(&personCounter, 1)
	fixture := PersonFixture{
		ID:        fmt.Sprintf("person-%04d", n),
		Name:      fmt.Sprintf("Person %d", n),
		WorkStart: "08:00",
		WorkEnd:   "17:00",
		WorkDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPersonID overrides the generated id.
func WithPersonID(id string) PersonOption {
	return func(f *PersonFixture) { f.ID = id }
}

// WithPersonName overrides the generated name.
func WithPersonName(name string) PersonOption {
	return func(f *PersonFixture) { f.Name = name }
}

// WithWorkTimes overrides the HH:MM day bounds.
func WithWorkTimes(start, end string) PersonOption {
	return func(f *PersonFixture) {
		f.WorkStart = start
		f.WorkEnd = end
	}
}

// WithWorkDays overrides the workday set.
func WithWorkDays(days ...time.Weekday) PersonOption {
	return func(f *PersonFixture) { f.WorkDays = days }
}

// Persistence materialises the fixture as a stored record.
func (f PersonFixture) Persistence() persistence.Person {
	return persistence.Person{
		ID:        f.ID,
		Name:      f.Name,
		WorkStart: f.WorkStart,
		WorkEnd:   f.WorkEnd,
		WorkDays:  append([]time.Weekday(nil), f.WorkDays...),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ---------------------------- Project fixtures ----------------------------

// ProjectFixture represents a deterministic project record.
type ProjectFixture struct {
	ID            string
	Name          string
	BudgetMinutes int
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProjectOption customises a project fixture.
type ProjectOption func(*ProjectFixture)

// NewProjectFixture builds a project with a unique id and no budget override.
func NewProjectFixture(opts ...ProjectOption) ProjectFixture {
	n := atomic.AddUint64(&projectCounter, 1)
	fixture := ProjectFixture{
		ID:        fmt.Sprintf("project-%04d", n),
		Name:      fmt.Sprintf("Project %d", n),
		Status:    "active",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithProjectID overrides the generated id.
func WithProjectID(id string) ProjectOption {
	return func(f *ProjectFixture) { f.ID = id }
}

// WithProjectBudget sets the budget override in minutes.
func WithProjectBudget(minutes int) ProjectOption {
	return func(f *ProjectFixture) { f.BudgetMinutes = minutes }
}

// Persistence materialises the fixture as a stored record.
func (f ProjectFixture) Persistence() persistence.Project {
	return persistence.Project{
		ID:            f.ID,
		Name:          f.Name,
		BudgetMinutes: f.BudgetMinutes,
		Status:        f.Status,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// ---------------------------- WorkItem fixtures ---------------------------

// WorkItemFixture represents a deterministic scope line.
type WorkItemFixture struct {
	ID             string
	ProjectID      string
	Title          string
	Quantity       int
	MinutesPerUnit int
	Deadline       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WorkItemOption customises a work-item fixture.
type WorkItemOption func(*WorkItemFixture)

// NewWorkItemFixture builds a single-unit work item with a unique id.
func NewWorkItemFixture(projectID string, opts ...WorkItemOption) WorkItemFixture {
	n := atomic.AddUint64(&workItemCounter, 1)
	fixture := WorkItemFixture{
		ID:             fmt.Sprintf("workitem-%04d", n),
		ProjectID:      projectID,
		Title:          fmt.Sprintf("Work item %d", n),
		Quantity:       1,
		MinutesPerUnit: 480,
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithWorkItemID overrides the generated id.
func WithWorkItemID(id string) WorkItemOption {
	return func(f *WorkItemFixture) { f.ID = id }
}

// WithWorkItemBudget sets quantity and per-unit minutes.
func WithWorkItemBudget(quantity, minutesPerUnit int) WorkItemOption {
	return func(f *WorkItemFixture) {
		f.Quantity = quantity
		f.MinutesPerUnit = minutesPerUnit
	}
}

// WithWorkItemDeadline sets the deadline.
func WithWorkItemDeadline(deadline time.Time) WorkItemOption {
	return func(f *WorkItemFixture) { f.Deadline = &deadline }
}

// Persistence materialises the fixture as a stored record.
func (f WorkItemFixture) Persistence() persistence.WorkItem {
	return persistence.WorkItem{
		ID:             f.ID,
		ProjectID:      f.ProjectID,
		Title:          f.Title,
		Quantity:       f.Quantity,
		MinutesPerUnit: f.MinutesPerUnit,
		TotalMinutes:   f.Quantity * f.MinutesPerUnit,
		Deadline:       f.Deadline,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}
