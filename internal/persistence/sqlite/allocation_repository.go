package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

// --- percent allocations ---

const percentAllocationColumns = "id, project_id, person_id, start_date, end_date, percent, title, created_at, updated_at"

func (s *Store) UpsertPercentAllocation(ctx context.Context, alloc persistence.PercentAllocation) error {
	var projectID any
	if alloc.ProjectID != nil {
		projectID = *alloc.ProjectID
	}

	// The insert's created_at survives conflicting upserts.
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO percent_allocations (`+percentAllocationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				project_id = excluded.project_id,
				person_id  = excluded.person_id,
				start_date = excluded.start_date,
				end_date   = excluded.end_date,
				percent    = excluded.percent,
				title      = excluded.title,
				updated_at = excluded.updated_at`,
		alloc.ID, projectID, alloc.PersonID, encodeDate(alloc.StartDate), encodeDate(alloc.EndDate),
		alloc.Percent, alloc.Title, encodeTime(alloc.CreatedAt), encodeTime(alloc.UpdatedAt),
	)
	return mapError(err)
}

func (s *Store) GetPercentAllocation(ctx context.Context, id string) (persistence.PercentAllocation, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+percentAllocationColumns+` FROM percent_allocations WHERE id = ?`, id)
	return scanPercentAllocation(row)
}

func (s *Store) DeletePercentAllocation(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM percent_allocations WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (s *Store) ListPercentAllocationsForProject(ctx context.Context, projectID *string) ([]persistence.PercentAllocation, error) {
	var rows *sql.Rows
	var err error
	if projectID == nil {
		rows, err = s.q.QueryContext(ctx,
			`SELECT `+percentAllocationColumns+` FROM percent_allocations
				WHERE project_id IS NULL ORDER BY start_date, id`)
	} else {
		rows, err = s.q.QueryContext(ctx,
			`SELECT `+percentAllocationColumns+` FROM percent_allocations
				WHERE project_id = ? ORDER BY start_date, id`, *projectID)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return collectPercentAllocations(rows)
}

func (s *Store) ListPercentAllocations(ctx context.Context, personID string, start, end time.Time) ([]persistence.PercentAllocation, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+percentAllocationColumns+` FROM percent_allocations
			WHERE person_id = ? AND end_date >= ? AND start_date <= ?
			ORDER BY start_date, id`,
		personID, encodeDate(start), encodeDate(end))
	if err != nil {
		return nil, mapError(err)
	}
	return collectPercentAllocations(rows)
}

func collectPercentAllocations(rows *sql.Rows) ([]persistence.PercentAllocation, error) {
	defer rows.Close()

	allocs := make([]persistence.PercentAllocation, 0)
	for rows.Next() {
		alloc, err := scanPercentAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, alloc)
	}
	return allocs, mapError(rows.Err())
}

func scanPercentAllocation(row rowScanner) (persistence.PercentAllocation, error) {
	var (
		out                  persistence.PercentAllocation
		projectID            sql.NullString
		startDate, endDate   string
		createdAt, updatedAt string
	)
	if err := row.Scan(&out.ID, &projectID, &out.PersonID, &startDate, &endDate,
		&out.Percent, &out.Title, &createdAt, &updatedAt); err != nil {
		return persistence.PercentAllocation{}, mapError(err)
	}

	var err error
	if projectID.Valid {
		id := projectID.String
		out.ProjectID = &id
	}
	if out.StartDate, err = decodeDate(startDate); err != nil {
		return persistence.PercentAllocation{}, err
	}
	if out.EndDate, err = decodeDate(endDate); err != nil {
		return persistence.PercentAllocation{}, err
	}
	if out.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.PercentAllocation{}, err
	}
	if out.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.PercentAllocation{}, err
	}
	return out, nil
}

// --- minute allocations ---

const minuteAllocationColumns = "id, project_id, work_item_id, person_id, start_date, end_date, minutes, created_at, updated_at"

func (s *Store) UpsertMinuteAllocation(ctx context.Context, alloc persistence.MinuteAllocation) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO minute_allocations (`+minuteAllocationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				project_id   = excluded.project_id,
				work_item_id = excluded.work_item_id,
				person_id    = excluded.person_id,
				start_date   = excluded.start_date,
				end_date     = excluded.end_date,
				minutes      = excluded.minutes,
				updated_at   = excluded.updated_at`,
		alloc.ID, alloc.ProjectID, alloc.WorkItemID, alloc.PersonID,
		encodeDate(alloc.StartDate), encodeDate(alloc.EndDate), alloc.Minutes,
		encodeTime(alloc.CreatedAt), encodeTime(alloc.UpdatedAt),
	)
	return mapError(err)
}

func (s *Store) GetMinuteAllocation(ctx context.Context, id string) (persistence.MinuteAllocation, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+minuteAllocationColumns+` FROM minute_allocations WHERE id = ?`, id)
	return scanMinuteAllocation(row)
}

func (s *Store) DeleteMinuteAllocation(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM minute_allocations WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (s *Store) ListMinuteAllocationsForProject(ctx context.Context, projectID string) ([]persistence.MinuteAllocation, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+minuteAllocationColumns+` FROM minute_allocations
			WHERE project_id = ? ORDER BY start_date, id`, projectID)
	if err != nil {
		return nil, mapError(err)
	}
	return collectMinuteAllocations(rows)
}

func (s *Store) ListMinuteAllocations(ctx context.Context, personID string, start, end time.Time) ([]persistence.MinuteAllocation, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+minuteAllocationColumns+` FROM minute_allocations
			WHERE person_id = ? AND end_date >= ? AND start_date <= ?
			ORDER BY start_date, id`,
		personID, encodeDate(start), encodeDate(end))
	if err != nil {
		return nil, mapError(err)
	}
	return collectMinuteAllocations(rows)
}

func collectMinuteAllocations(rows *sql.Rows) ([]persistence.MinuteAllocation, error) {
	defer rows.Close()

	allocs := make([]persistence.MinuteAllocation, 0)
	for rows.Next() {
		alloc, err := scanMinuteAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, alloc)
	}
	return allocs, mapError(rows.Err())
}

func scanMinuteAllocation(row rowScanner) (persistence.MinuteAllocation, error) {
	var (
		out                  persistence.MinuteAllocation
		startDate, endDate   string
		createdAt, updatedAt string
	)
	if err := row.Scan(&out.ID, &out.ProjectID, &out.WorkItemID, &out.PersonID, &startDate, &endDate,
		&out.Minutes, &createdAt, &updatedAt); err != nil {
		return persistence.MinuteAllocation{}, mapError(err)
	}

	var err error
	if out.StartDate, err = decodeDate(startDate); err != nil {
		return persistence.MinuteAllocation{}, err
	}
	if out.EndDate, err = decodeDate(endDate); err != nil {
		return persistence.MinuteAllocation{}, err
	}
	if out.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.MinuteAllocation{}, err
	}
	if out.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.MinuteAllocation{}, err
	}
	return out, nil
}
