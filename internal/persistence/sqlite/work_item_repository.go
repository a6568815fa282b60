package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

const workItemColumns = "id, project_id, title, quantity, minutes_per_unit, total_minutes, deadline, created_at, updated_at"

func (s *Store) CreateWorkItem(ctx context.Context, item persistence.WorkItem) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO work_items (`+workItemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ProjectID, item.Title, item.Quantity, item.MinutesPerUnit, item.TotalMinutes,
		encodeDeadline(item.Deadline), encodeTime(item.CreatedAt), encodeTime(item.UpdatedAt),
	)
	return mapError(err)
}

func (s *Store) UpdateWorkItem(ctx context.Context, item persistence.WorkItem) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE work_items SET project_id = ?, title = ?, quantity = ?, minutes_per_unit = ?,
			total_minutes = ?, deadline = ?, updated_at = ? WHERE id = ?`,
		item.ProjectID, item.Title, item.Quantity, item.MinutesPerUnit, item.TotalMinutes,
		encodeDeadline(item.Deadline), encodeTime(item.UpdatedAt), item.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (s *Store) GetWorkItem(ctx context.Context, id string) (persistence.WorkItem, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+workItemColumns+` FROM work_items WHERE id = ?`, id)
	return scanWorkItem(row)
}

func (s *Store) ListWorkItemsForProject(ctx context.Context, projectID string) ([]persistence.WorkItem, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+workItemColumns+` FROM work_items WHERE project_id = ? ORDER BY title, id`, projectID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := make([]persistence.WorkItem, 0)
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, mapError(rows.Err())
}

func (s *Store) DeleteWorkItem(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func encodeDeadline(deadline *time.Time) any {
	if deadline == nil {
		return nil
	}
	return encodeDate(*deadline)
}

func scanWorkItem(row rowScanner) (persistence.WorkItem, error) {
	var (
		item               persistence.WorkItem
		deadline           sql.NullString
		createdAt, updated string
	)
	if err := row.Scan(&item.ID, &item.ProjectID, &item.Title, &item.Quantity, &item.MinutesPerUnit,
		&item.TotalMinutes, &deadline, &createdAt, &updated); err != nil {
		return persistence.WorkItem{}, mapError(err)
	}

	var err error
	if deadline.Valid {
		d, err := decodeDate(deadline.String)
		if err != nil {
			return persistence.WorkItem{}, err
		}
		item.Deadline = &d
	}
	if item.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.WorkItem{}, err
	}
	if item.UpdatedAt, err = decodeTime(updated); err != nil {
		return persistence.WorkItem{}, err
	}
	return item, nil
}
