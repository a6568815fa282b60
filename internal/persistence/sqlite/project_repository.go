package sqlite

import (
	"context"

	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

const projectColumns = "id, name, budget_minutes, status, created_at, updated_at"

func (s *Store) CreateProject(ctx context.Context, project persistence.Project) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.BudgetMinutes, project.Status,
		encodeTime(project.CreatedAt), encodeTime(project.UpdatedAt),
	)
	return mapError(err)
}

func (s *Store) UpdateProject(ctx context.Context, project persistence.Project) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE projects SET name = ?, budget_minutes = ?, status = ?, updated_at = ? WHERE id = ?`,
		project.Name, project.BudgetMinutes, project.Status, encodeTime(project.UpdatedAt), project.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (s *Store) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (s *Store) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	projects := make([]persistence.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, mapError(rows.Err())
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func scanProject(row rowScanner) (persistence.Project, error) {
	var (
		project            persistence.Project
		createdAt, updated string
	)
	if err := row.Scan(&project.ID, &project.Name, &project.BudgetMinutes, &project.Status, &createdAt, &updated); err != nil {
		return persistence.Project{}, mapError(err)
	}

	var err error
	if project.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Project{}, err
	}
	if project.UpdatedAt, err = decodeTime(updated); err != nil {
		return persistence.Project{}, err
	}
	return project, nil
}
