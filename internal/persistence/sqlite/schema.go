package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; PRAGMA user_version tracks how many have
// run. Entries are append-only.
var migrations = []string{
	`CREATE TABLE persons (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		work_start TEXT NOT NULL,
		work_end   TEXT NOT NULL,
		work_days  TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE projects (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		budget_minutes INTEGER NOT NULL DEFAULT 0,
		status         TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	);

	CREATE TABLE work_items (
		id               TEXT PRIMARY KEY,
		project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title            TEXT NOT NULL,
		quantity         INTEGER NOT NULL,
		minutes_per_unit INTEGER NOT NULL,
		total_minutes    INTEGER NOT NULL,
		deadline         TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);
	CREATE INDEX idx_work_items_project ON work_items(project_id);

	CREATE TABLE time_off (
		id         TEXT PRIMARY KEY,
		person_id  TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		start_at   TEXT NOT NULL,
		end_at     TEXT NOT NULL,
		kind       TEXT NOT NULL DEFAULT '',
		note       TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		CHECK (start_at < end_at)
	);
	CREATE INDEX idx_time_off_person ON time_off(person_id, start_at);

	CREATE TABLE time_blocks (
		id           TEXT PRIMARY KEY,
		person_id    TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		work_item_id TEXT NOT NULL REFERENCES work_items(id) ON DELETE CASCADE,
		start_at     TEXT NOT NULL,
		end_at       TEXT NOT NULL,
		locked       INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		CHECK (start_at < end_at)
	);
	CREATE INDEX idx_time_blocks_person ON time_blocks(person_id, start_at);
	CREATE INDEX idx_time_blocks_item ON time_blocks(work_item_id, person_id);

	CREATE TABLE percent_allocations (
		id         TEXT PRIMARY KEY,
		project_id TEXT REFERENCES projects(id) ON DELETE CASCADE,
		person_id  TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		percent    INTEGER NOT NULL,
		title      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (start_date <= end_date)
	);
	CREATE INDEX idx_percent_allocations_person ON percent_allocations(person_id, start_date);
	CREATE INDEX idx_percent_allocations_project ON percent_allocations(project_id);

	CREATE TABLE minute_allocations (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		work_item_id TEXT NOT NULL REFERENCES work_items(id) ON DELETE CASCADE,
		person_id    TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		start_date   TEXT NOT NULL,
		end_date     TEXT NOT NULL,
		minutes      INTEGER NOT NULL,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		CHECK (start_date <= end_date)
	);
	CREATE INDEX idx_minute_allocations_person ON minute_allocations(person_id, start_date);
	CREATE INDEX idx_minute_allocations_project ON minute_allocations(project_id);`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("sqlite: database schema version %d is newer than this binary supports (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("sqlite: begin migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: apply migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: bump schema version to %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("sqlite: commit migration %d: %w", i+1, err)
		}
	}
	return nil
}
