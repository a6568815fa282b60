package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/calendar"
	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

// PersonInput captures caller provided person fields. Work times are "HH:MM"
// wall-clock strings.
type PersonInput struct {
	Name      string
	WorkStart string
	WorkEnd   string
	WorkDays  []time.Weekday
}

// ProjectInput captures caller provided project fields. A positive
// BudgetMinutes overrides the work-item sum as the project's scope.
type ProjectInput struct {
	Name          string
	BudgetMinutes int
	Status        string
}

// WorkItemInput captures caller provided work-item fields. TotalMinutes is
// derived as Quantity × MinutesPerUnit.
type WorkItemInput struct {
	ProjectID      string
	Title          string
	Quantity       int
	MinutesPerUnit int
	Deadline       *time.Time
}

// TimeOffInput captures caller provided absence fields.
type TimeOffInput struct {
	PersonID string
	Start    time.Time
	End      time.Time
	Kind     string
	Note     string
}

// DirectoryService maintains the planning directory: persons, projects, work
// items and absences.
type DirectoryService struct {
	store       persistence.Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewDirectoryService wires dependencies for directory maintenance.
func NewDirectoryService(store persistence.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DirectoryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DirectoryService{
		store:       store,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreatePerson validates and stores a new planning resource.
func (s *DirectoryService) CreatePerson(ctx context.Context, input PersonInput) (persistence.Person, error) {
	if s == nil {
		return persistence.Person{}, fmt.Errorf("DirectoryService is nil")
	}
	if err := validatePersonInput(input); err != nil {
		return persistence.Person{}, err
	}

	now := s.now()
	person := persistence.Person{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		WorkStart: input.WorkStart,
		WorkEnd:   input.WorkEnd,
		WorkDays:  append([]time.Weekday(nil), input.WorkDays...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreatePerson(ctx, person); err != nil {
		return persistence.Person{}, mapRepoError(err)
	}
	return person, nil
}

// UpdatePerson replaces a person's profile fields.
func (s *DirectoryService) UpdatePerson(ctx context.Context, id string, input PersonInput) (persistence.Person, error) {
	if s == nil {
		return persistence.Person{}, fmt.Errorf("DirectoryService is nil")
	}
	if err := validatePersonInput(input); err != nil {
		return persistence.Person{}, err
	}

	existing, err := s.store.GetPerson(ctx, id)
	if err != nil {
		return persistence.Person{}, mapRepoError(err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.WorkStart = input.WorkStart
	existing.WorkEnd = input.WorkEnd
	existing.WorkDays = append([]time.Weekday(nil), input.WorkDays...)
	existing.UpdatedAt = s.now()

	if err := s.store.UpdatePerson(ctx, existing); err != nil {
		return persistence.Person{}, mapRepoError(err)
	}
	return existing, nil
}

// GetPerson looks up one person.
func (s *DirectoryService) GetPerson(ctx context.Context, id string) (persistence.Person, error) {
	person, err := s.store.GetPerson(ctx, id)
	if err != nil {
		return persistence.Person{}, mapRepoError(err)
	}
	return person, nil
}

// ListPersons enumerates every planning resource.
func (s *DirectoryService) ListPersons(ctx context.Context) ([]persistence.Person, error) {
	persons, err := s.store.ListPersons(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return persons, nil
}

// DeletePerson removes a person from the directory.
func (s *DirectoryService) DeletePerson(ctx context.Context, id string) error {
	if err := s.store.DeletePerson(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// CreateProject validates and stores a new project.
func (s *DirectoryService) CreateProject(ctx context.Context, input ProjectInput) (persistence.Project, error) {
	if s == nil {
		return persistence.Project{}, fmt.Errorf("DirectoryService is nil")
	}
	if err := validateProjectInput(input); err != nil {
		return persistence.Project{}, err
	}

	now := s.now()
	project := persistence.Project{
		ID:            s.idGenerator(),
		Name:          strings.TrimSpace(input.Name),
		BudgetMinutes: input.BudgetMinutes,
		Status:        input.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return persistence.Project{}, mapRepoError(err)
	}
	return project, nil
}

// UpdateProject replaces a project's fields.
func (s *DirectoryService) UpdateProject(ctx context.Context, id string, input ProjectInput) (persistence.Project, error) {
	if s == nil {
		return persistence.Project{}, fmt.Errorf("DirectoryService is nil")
	}
	if err := validateProjectInput(input); err != nil {
		return persistence.Project{}, err
	}

	existing, err := s.store.GetProject(ctx, id)
	if err != nil {
		return persistence.Project{}, mapRepoError(err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.BudgetMinutes = input.BudgetMinutes
	existing.Status = input.Status
	existing.UpdatedAt = s.now()

	if err := s.store.UpdateProject(ctx, existing); err != nil {
		return persistence.Project{}, mapRepoError(err)
	}
	return existing, nil
}

// GetProject looks up one project.
func (s *DirectoryService) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return persistence.Project{}, mapRepoError(err)
	}
	return project, nil
}

// ListProjects enumerates every project.
func (s *DirectoryService) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return projects, nil
}

// DeleteProject removes a project and cascades to its work items.
func (s *DirectoryService) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// CreateWorkItem validates and stores a new scope line.
func (s *DirectoryService) CreateWorkItem(ctx context.Context, input WorkItemInput) (persistence.WorkItem, error) {
	if s == nil {
		return persistence.WorkItem{}, fmt.Errorf("DirectoryService is nil")
	}
	if err := validateWorkItemInput(input); err != nil {
		return persistence.WorkItem{}, err
	}
	if _, err := s.store.GetProject(ctx, input.ProjectID); err != nil {
		return persistence.WorkItem{}, mapRepoError(err)
	}

	now := s.now()
	item := persistence.WorkItem{
		ID:             s.idGenerator(),
		ProjectID:      input.ProjectID,
		Title:          strings.TrimSpace(input.Title),
		Quantity:       input.Quantity,
		MinutesPerUnit: input.MinutesPerUnit,
		TotalMinutes:   input.Quantity * input.MinutesPerUnit,
		Deadline:       input.Deadline,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateWorkItem(ctx, item); err != nil {
		return persistence.WorkItem{}, mapRepoError(err)
	}
	return item, nil
}

// UpdateWorkItem replaces a work item's fields, recomputing its total.
func (s *DirectoryService) UpdateWorkItem(ctx context.Context, id string, input WorkItemInput) (persistence.WorkItem, error) {
	if s == nil {
		return persistence.WorkItem{}, fmt.Errorf("DirectoryService is nil")
	}
	if err := validateWorkItemInput(input); err != nil {
		return persistence.WorkItem{}, err
	}

	existing, err := s.store.GetWorkItem(ctx, id)
	if err != nil {
		return persistence.WorkItem{}, mapRepoError(err)
	}
	if existing.ProjectID != input.ProjectID {
		vErr := &ValidationError{}
		vErr.add("project_id", "work item cannot move between projects")
		return persistence.WorkItem{}, vErr
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Quantity = input.Quantity
	existing.MinutesPerUnit = input.MinutesPerUnit
	existing.TotalMinutes = input.Quantity * input.MinutesPerUnit
	existing.Deadline = input.Deadline
	existing.UpdatedAt = s.now()

	if err := s.store.UpdateWorkItem(ctx, existing); err != nil {
		return persistence.WorkItem{}, mapRepoError(err)
	}
	return existing, nil
}

// GetWorkItem looks up one work item.
func (s *DirectoryService) GetWorkItem(ctx context.Context, id string) (persistence.WorkItem, error) {
	item, err := s.store.GetWorkItem(ctx, id)
	if err != nil {
		return persistence.WorkItem{}, mapRepoError(err)
	}
	return item, nil
}

// ListWorkItems enumerates a project's scope lines.
func (s *DirectoryService) ListWorkItems(ctx context.Context, projectID string) ([]persistence.WorkItem, error) {
	items, err := s.store.ListWorkItemsForProject(ctx, projectID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return items, nil
}

// DeleteWorkItem removes a scope line.
func (s *DirectoryService) DeleteWorkItem(ctx context.Context, id string) error {
	if err := s.store.DeleteWorkItem(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// CreateTimeOff records an absence interval for a person.
func (s *DirectoryService) CreateTimeOff(ctx context.Context, input TimeOffInput) (persistence.TimeOff, error) {
	if s == nil {
		return persistence.TimeOff{}, fmt.Errorf("DirectoryService is nil")
	}

	vErr := &ValidationError{}
	if input.PersonID == "" {
		vErr.add("person_id", "person id is required")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		vErr.add("interval", "start and end are required")
	} else if !input.Start.Before(input.End) {
		vErr.add("interval", "start must be before end")
	}
	if vErr.HasErrors() {
		return persistence.TimeOff{}, vErr
	}
	if _, err := s.store.GetPerson(ctx, input.PersonID); err != nil {
		return persistence.TimeOff{}, mapRepoError(err)
	}

	off := persistence.TimeOff{
		ID:        s.idGenerator(),
		PersonID:  input.PersonID,
		Start:     input.Start,
		End:       input.End,
		Kind:      input.Kind,
		Note:      input.Note,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateTimeOff(ctx, off); err != nil {
		return persistence.TimeOff{}, mapRepoError(err)
	}
	return off, nil
}

// DeleteTimeOff removes an absence.
func (s *DirectoryService) DeleteTimeOff(ctx context.Context, id string) error {
	if err := s.store.DeleteTimeOff(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// DeleteTimeBlock removes a committed schedule block, freeing its time.
func (s *DirectoryService) DeleteTimeBlock(ctx context.Context, id string) error {
	if err := s.store.DeleteTimeBlock(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

func validatePersonInput(input PersonInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	start, startErr := calendar.ParseHHMM(input.WorkStart)
	if startErr != nil {
		vErr.add("work_start", "must be HH:MM")
	}
	end, endErr := calendar.ParseHHMM(input.WorkEnd)
	if endErr != nil {
		vErr.add("work_end", "must be HH:MM")
	}
	if startErr == nil && endErr == nil && start >= end {
		vErr.add("work_times", "work start must be before work end")
	}
	if len(input.WorkDays) == 0 {
		vErr.add("work_days", "at least one workday is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func validateProjectInput(input ProjectInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.BudgetMinutes < 0 {
		vErr.add("budget_minutes", "budget cannot be negative")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func validateWorkItemInput(input WorkItemInput) error {
	vErr := &ValidationError{}
	if input.ProjectID == "" {
		vErr.add("project_id", "project id is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Quantity <= 0 {
		vErr.add("quantity", "quantity must be positive")
	}
	if input.MinutesPerUnit <= 0 {
		vErr.add("minutes_per_unit", "minutes per unit must be positive")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
