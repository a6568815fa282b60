// Package memory provides an in-memory persistence.Store used by tests and
// the default development mode. Transactions clone the full state and swap it
// back on success, giving the same commit-or-rollback semantics as the SQLite
// store at a much smaller scale.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

// Store keeps every record in maps guarded by a single lock.
type Store struct {
	mu      sync.RWMutex
	txMu    sync.Mutex
	persons map[string]persistence.Person
	offs    map[string]persistence.TimeOff
	blocks  map[string]persistence.TimeBlock
	projs   map[string]persistence.Project
	items   map[string]persistence.WorkItem
	pallocs map[string]persistence.PercentAllocation
	mallocs map[string]persistence.MinuteAllocation
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		persons: make(map[string]persistence.Person),
		offs:    make(map[string]persistence.TimeOff),
		blocks:  make(map[string]persistence.TimeBlock),
		projs:   make(map[string]persistence.Project),
		items:   make(map[string]persistence.WorkItem),
		pallocs: make(map[string]persistence.PercentAllocation),
		mallocs: make(map[string]persistence.MinuteAllocation),
	}
}

// Close releases resources. No-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// InTransaction clones the store, runs fn against the clone and swaps the
// clone's state back in when fn succeeds. Concurrent transactions are
// serialized.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context, tx persistence.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := s.snapshot()
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.persons = tx.persons
	s.offs = tx.offs
	s.blocks = tx.blocks
	s.projs = tx.projs
	s.items = tx.items
	s.pallocs = tx.pallocs
	s.mallocs = tx.mallocs
	s.mu.Unlock()
	return nil
}

func (s *Store) snapshot() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := NewStore()
	for id, p := range s.persons {
		clone.persons[id] = clonePerson(p)
	}
	for id, o := range s.offs {
		clone.offs[id] = o
	}
	for id, b := range s.blocks {
		clone.blocks[id] = b
	}
	for id, p := range s.projs {
		clone.projs[id] = p
	}
	for id, w := range s.items {
		clone.items[id] = cloneWorkItem(w)
	}
	for id, a := range s.pallocs {
		clone.pallocs[id] = clonePercentAllocation(a)
	}
	for id, a := range s.mallocs {
		clone.mallocs[id] = a
	}
	return clone
}

// --- PersonRepository ---

func (s *Store) CreatePerson(ctx context.Context, person persistence.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[person.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.persons[person.ID] = clonePerson(person)
	return nil
}

func (s *Store) UpdatePerson(ctx context.Context, person persistence.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[person.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.persons[person.ID] = clonePerson(person)
	return nil
}

func (s *Store) GetPerson(ctx context.Context, id string) (persistence.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	person, ok := s.persons[id]
	if !ok {
		return persistence.Person{}, persistence.ErrNotFound
	}
	return clonePerson(person), nil
}

func (s *Store) ListPersons(ctx context.Context) ([]persistence.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	persons := make([]persistence.Person, 0, len(s.persons))
	for _, p := range s.persons {
		persons = append(persons, clonePerson(p))
	}
	sort.Slice(persons, func(i, j int) bool {
		if persons[i].Name == persons[j].Name {
			return persons[i].ID < persons[j].ID
		}
		return persons[i].Name < persons[j].Name
	})
	return persons, nil
}

func (s *Store) DeletePerson(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.persons, id)
	return nil
}

// --- TimeOffRepository ---

func (s *Store) CreateTimeOff(ctx context.Context, off persistence.TimeOff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.offs[off.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.persons[off.PersonID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if !off.Start.Before(off.End) {
		return persistence.ErrConstraintViolation
	}
	s.offs[off.ID] = off
	return nil
}

func (s *Store) DeleteTimeOff(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.offs[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.offs, id)
	return nil
}

func (s *Store) ListTimeOff(ctx context.Context, personID string, start, end time.Time) ([]persistence.TimeOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offs := make([]persistence.TimeOff, 0)
	for _, o := range s.offs {
		if o.PersonID != personID {
			continue
		}
		if !o.End.After(start) || !o.Start.Before(end) {
			continue
		}
		offs = append(offs, o)
	}
	sortByStart(offs, func(o persistence.TimeOff) (time.Time, string) { return o.Start, o.ID })
	return offs, nil
}

// --- TimeBlockRepository ---

func (s *Store) CreateTimeBlock(ctx context.Context, block persistence.TimeBlock) (persistence.TimeBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocks[block.ID]; ok {
		return persistence.TimeBlock{}, persistence.ErrDuplicate
	}
	if _, ok := s.persons[block.PersonID]; !ok {
		return persistence.TimeBlock{}, persistence.ErrForeignKeyViolation
	}
	if !block.Start.Before(block.End) {
		return persistence.TimeBlock{}, persistence.ErrConstraintViolation
	}
	s.blocks[block.ID] = block
	return block, nil
}

func (s *Store) DeleteTimeBlock(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocks[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.blocks, id)
	return nil
}

func (s *Store) ListTimeBlocks(ctx context.Context, personID string, start, end time.Time) ([]persistence.TimeBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]persistence.TimeBlock, 0)
	for _, b := range s.blocks {
		if b.PersonID != personID {
			continue
		}
		if !b.End.After(start) || !b.Start.Before(end) {
			continue
		}
		blocks = append(blocks, b)
	}
	sortByStart(blocks, func(b persistence.TimeBlock) (time.Time, string) { return b.Start, b.ID })
	return blocks, nil
}

func (s *Store) ListTimeBlocksForWorkItem(ctx context.Context, workItemID, personID string) ([]persistence.TimeBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]persistence.TimeBlock, 0)
	for _, b := range s.blocks {
		if b.WorkItemID != workItemID || b.PersonID != personID {
			continue
		}
		blocks = append(blocks, b)
	}
	sortByStart(blocks, func(b persistence.TimeBlock) (time.Time, string) { return b.Start, b.ID })
	return blocks, nil
}

// --- ProjectRepository ---

func (s *Store) CreateProject(ctx context.Context, project persistence.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projs[project.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.projs[project.ID] = project
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, project persistence.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projs[project.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.projs[project.ID] = project
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projs[id]
	if !ok {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return project, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]persistence.Project, 0, len(s.projs))
	for _, p := range s.projs {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].Name == projects[j].Name {
			return projects[i].ID < projects[j].ID
		}
		return projects[i].Name < projects[j].Name
	})
	return projects, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projs[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.projs, id)

	for itemID, item := range s.items {
		if item.ProjectID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

// --- WorkItemRepository ---

func (s *Store) CreateWorkItem(ctx context.Context, item persistence.WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.projs[item.ProjectID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	s.items[item.ID] = cloneWorkItem(item)
	return nil
}

func (s *Store) UpdateWorkItem(ctx context.Context, item persistence.WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.items[item.ID] = cloneWorkItem(item)
	return nil
}

func (s *Store) GetWorkItem(ctx context.Context, id string) (persistence.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return persistence.WorkItem{}, persistence.ErrNotFound
	}
	return cloneWorkItem(item), nil
}

func (s *Store) ListWorkItemsForProject(ctx context.Context, projectID string) ([]persistence.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]persistence.WorkItem, 0)
	for _, item := range s.items {
		if item.ProjectID != projectID {
			continue
		}
		items = append(items, cloneWorkItem(item))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Title == items[j].Title {
			return items[i].ID < items[j].ID
		}
		return items[i].Title < items[j].Title
	})
	return items, nil
}

func (s *Store) DeleteWorkItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// --- AllocationRepository ---

func (s *Store) UpsertPercentAllocation(ctx context.Context, alloc persistence.PercentAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[alloc.PersonID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if alloc.ProjectID != nil {
		if _, ok := s.projs[*alloc.ProjectID]; !ok {
			return persistence.ErrForeignKeyViolation
		}
	}
	if alloc.EndDate.Before(alloc.StartDate) {
		return persistence.ErrConstraintViolation
	}
	if existing, ok := s.pallocs[alloc.ID]; ok {
		alloc.CreatedAt = existing.CreatedAt
	}
	s.pallocs[alloc.ID] = clonePercentAllocation(alloc)
	return nil
}

func (s *Store) GetPercentAllocation(ctx context.Context, id string) (persistence.PercentAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alloc, ok := s.pallocs[id]
	if !ok {
		return persistence.PercentAllocation{}, persistence.ErrNotFound
	}
	return clonePercentAllocation(alloc), nil
}

func (s *Store) DeletePercentAllocation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pallocs[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.pallocs, id)
	return nil
}

func (s *Store) ListPercentAllocationsForProject(ctx context.Context, projectID *string) ([]persistence.PercentAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allocs := make([]persistence.PercentAllocation, 0)
	for _, a := range s.pallocs {
		switch {
		case projectID == nil && a.ProjectID != nil:
			continue
		case projectID != nil && (a.ProjectID == nil || *a.ProjectID != *projectID):
			continue
		}
		allocs = append(allocs, clonePercentAllocation(a))
	}
	sortByStart(allocs, func(a persistence.PercentAllocation) (time.Time, string) { return a.StartDate, a.ID })
	return allocs, nil
}

func (s *Store) ListPercentAllocations(ctx context.Context, personID string, start, end time.Time) ([]persistence.PercentAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allocs := make([]persistence.PercentAllocation, 0)
	for _, a := range s.pallocs {
		if a.PersonID != personID {
			continue
		}
		if a.EndDate.Before(start) || a.StartDate.After(end) {
			continue
		}
		allocs = append(allocs, clonePercentAllocation(a))
	}
	sortByStart(allocs, func(a persistence.PercentAllocation) (time.Time, string) { return a.StartDate, a.ID })
	return allocs, nil
}

func (s *Store) UpsertMinuteAllocation(ctx context.Context, alloc persistence.MinuteAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[alloc.PersonID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := s.items[alloc.WorkItemID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if alloc.EndDate.Before(alloc.StartDate) {
		return persistence.ErrConstraintViolation
	}
	if existing, ok := s.mallocs[alloc.ID]; ok {
		alloc.CreatedAt = existing.CreatedAt
	}
	s.mallocs[alloc.ID] = alloc
	return nil
}

func (s *Store) GetMinuteAllocation(ctx context.Context, id string) (persistence.MinuteAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alloc, ok := s.mallocs[id]
	if !ok {
		return persistence.MinuteAllocation{}, persistence.ErrNotFound
	}
	return alloc, nil
}

func (s *Store) DeleteMinuteAllocation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mallocs[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.mallocs, id)
	return nil
}

func (s *Store) ListMinuteAllocationsForProject(ctx context.Context, projectID string) ([]persistence.MinuteAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allocs := make([]persistence.MinuteAllocation, 0)
	for _, a := range s.mallocs {
		if a.ProjectID != projectID {
			continue
		}
		allocs = append(allocs, a)
	}
	sortByStart(allocs, func(a persistence.MinuteAllocation) (time.Time, string) { return a.StartDate, a.ID })
	return allocs, nil
}

func (s *Store) ListMinuteAllocations(ctx context.Context, personID string, start, end time.Time) ([]persistence.MinuteAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allocs := make([]persistence.MinuteAllocation, 0)
	for _, a := range s.mallocs {
		if a.PersonID != personID {
			continue
		}
		if a.EndDate.Before(start) || a.StartDate.After(end) {
			continue
		}
		allocs = append(allocs, a)
	}
	sortByStart(allocs, func(a persistence.MinuteAllocation) (time.Time, string) { return a.StartDate, a.ID })
	return allocs, nil
}

// --- Helpers ---

func clonePerson(p persistence.Person) persistence.Person {
	days := make([]time.Weekday, len(p.WorkDays))
	copy(days, p.WorkDays)
	p.WorkDays = days
	return p
}

func cloneWorkItem(w persistence.WorkItem) persistence.WorkItem {
	if w.Deadline != nil {
		deadline := *w.Deadline
		w.Deadline = &deadline
	}
	return w
}

func clonePercentAllocation(a persistence.PercentAllocation) persistence.PercentAllocation {
	if a.ProjectID != nil {
		id := *a.ProjectID
		a.ProjectID = &id
	}
	return a
}

func sortByStart[T any](values []T, key func(T) (time.Time, string)) {
	sort.Slice(values, func(i, j int) bool {
		ti, idi := key(values[i])
		tj, idj := key(values[j])
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.Before(tj)
	})
}
