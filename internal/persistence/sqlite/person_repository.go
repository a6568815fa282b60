package sqlite

import (
	"context"

	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

const personColumns = "id, name, work_start, work_end, work_days, created_at, updated_at"

func (s *Store) CreatePerson(ctx context.Context, person persistence.Person) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO persons (`+personColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		person.ID, person.Name, person.WorkStart, person.WorkEnd,
		encodeWeekdays(person.WorkDays), encodeTime(person.CreatedAt), encodeTime(person.UpdatedAt),
	)
	return mapError(err)
}

func (s *Store) UpdatePerson(ctx context.Context, person persistence.Person) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE persons SET name = ?, work_start = ?, work_end = ?, work_days = ?, updated_at = ? WHERE id = ?`,
		person.Name, person.WorkStart, person.WorkEnd,
		encodeWeekdays(person.WorkDays), encodeTime(person.UpdatedAt), person.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (s *Store) GetPerson(ctx context.Context, id string) (persistence.Person, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons WHERE id = ?`, id)
	return scanPerson(row)
}

func (s *Store) ListPersons(ctx context.Context) ([]persistence.Person, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+personColumns+` FROM persons ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	persons := make([]persistence.Person, 0)
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}
	return persons, mapError(rows.Err())
}

func (s *Store) DeletePerson(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (persistence.Person, error) {
	var (
		person             persistence.Person
		days               string
		createdAt, updated string
	)
	if err := row.Scan(&person.ID, &person.Name, &person.WorkStart, &person.WorkEnd, &days, &createdAt, &updated); err != nil {
		return persistence.Person{}, mapError(err)
	}

	var err error
	if person.WorkDays, err = decodeWeekdays(days); err != nil {
		return persistence.Person{}, err
	}
	if person.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Person{}, err
	}
	if person.UpdatedAt, err = decodeTime(updated); err != nil {
		return persistence.Person{}, err
	}
	return person, nil
}
