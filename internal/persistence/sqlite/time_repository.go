package sqlite

import (
	"context"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

// --- TimeOffRepository ---

const timeOffColumns = "id, person_id, start_at, end_at, kind, note, created_at"

func (s *Store) CreateTimeOff(ctx context.Context, off persistence.TimeOff) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO time_off (`+timeOffColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		off.ID, off.PersonID, encodeTime(off.Start), encodeTime(off.End),
		off.Kind, off.Note, encodeTime(off.CreatedAt),
	)
	return mapError(err)
}

func (s *Store) DeleteTimeOff(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM time_off WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (s *Store) ListTimeOff(ctx context.Context, personID string, start, end time.Time) ([]persistence.TimeOff, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+timeOffColumns+` FROM time_off
			WHERE person_id = ? AND end_at > ? AND start_at < ?
			ORDER BY start_at, id`,
		personID, encodeTime(start), encodeTime(end))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	offs := make([]persistence.TimeOff, 0)
	for rows.Next() {
		var (
			off                       persistence.TimeOff
			startAt, endAt, createdAt string
		)
		if err := rows.Scan(&off.ID, &off.PersonID, &startAt, &endAt, &off.Kind, &off.Note, &createdAt); err != nil {
			return nil, mapError(err)
		}
		if off.Start, err = decodeTime(startAt); err != nil {
			return nil, err
		}
		if off.End, err = decodeTime(endAt); err != nil {
			return nil, err
		}
		if off.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		offs = append(offs, off)
	}
	return offs, mapError(rows.Err())
}

// --- TimeBlockRepository ---

const timeBlockColumns = "id, person_id, work_item_id, start_at, end_at, locked, created_at"

func (s *Store) CreateTimeBlock(ctx context.Context, block persistence.TimeBlock) (persistence.TimeBlock, error) {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO time_blocks (`+timeBlockColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		block.ID, block.PersonID, block.WorkItemID, encodeTime(block.Start), encodeTime(block.End),
		block.Locked, encodeTime(block.CreatedAt),
	)
	if err != nil {
		return persistence.TimeBlock{}, mapError(err)
	}
	return block, nil
}

func (s *Store) DeleteTimeBlock(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM time_blocks WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (s *Store) ListTimeBlocks(ctx context.Context, personID string, start, end time.Time) ([]persistence.TimeBlock, error) {
	return s.queryTimeBlocks(ctx,
		`SELECT `+timeBlockColumns+` FROM time_blocks
			WHERE person_id = ? AND end_at > ? AND start_at < ?
			ORDER BY start_at, id`,
		personID, encodeTime(start), encodeTime(end))
}

func (s *Store) ListTimeBlocksForWorkItem(ctx context.Context, workItemID, personID string) ([]persistence.TimeBlock, error) {
	return s.queryTimeBlocks(ctx,
		`SELECT `+timeBlockColumns+` FROM time_blocks
			WHERE work_item_id = ? AND person_id = ?
			ORDER BY start_at, id`,
		workItemID, personID)
}

func (s *Store) queryTimeBlocks(ctx context.Context, query string, args ...any) ([]persistence.TimeBlock, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	blocks := make([]persistence.TimeBlock, 0)
	for rows.Next() {
		var (
			block                     persistence.TimeBlock
			startAt, endAt, createdAt string
		)
		if err := rows.Scan(&block.ID, &block.PersonID, &block.WorkItemID, &startAt, &endAt,
			&block.Locked, &createdAt); err != nil {
			return nil, mapError(err)
		}
		if block.Start, err = decodeTime(startAt); err != nil {
			return nil, err
		}
		if block.End, err = decodeTime(endAt); err != nil {
			return nil, err
		}
		if block.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, mapError(rows.Err())
}
