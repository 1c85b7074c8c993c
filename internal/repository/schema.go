package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS task_lists (
	seq         BIGSERIAL,
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created     TIMESTAMPTZ NOT NULL,
	updated     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	seq         BIGSERIAL,
	id          TEXT PRIMARY KEY,
	list_id     TEXT NOT NULL REFERENCES task_lists (id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	due_date    TIMESTAMPTZ,
	status      TEXT NOT NULL CHECK (status IN ('OPEN', 'CLOSED')),
	priority    TEXT NOT NULL CHECK (priority IN ('LOW', 'MEDIUM', 'HIGH')),
	created     TIMESTAMPTZ NOT NULL,
	updated     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS tasks_list_id_idx ON tasks (list_id, seq);
`

// EnsureSchema creates the tables when they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
