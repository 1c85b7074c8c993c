// Package repository stores task lists in PostgreSQL through lib/pq.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/locvowork/tasktracker/internal/domain"
)

// foreignKeyViolation is the SQLSTATE raised when a task references a list
// that does not exist.
const foreignKeyViolation = "23503"

// Postgres keeps microseconds.
const resolution = time.Microsecond

type Option func(*TaskListRepository)

func WithClock(now func() time.Time) Option {
	return func(r *TaskListRepository) {
		if now != nil {
			r.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(r *TaskListRepository) {
		if gen != nil {
			r.newID = gen
		}
	}
}

type TaskListRepository struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

var _ domain.TaskListRepository = (*TaskListRepository)(nil)

func NewTaskListRepository(db *sql.DB, opts ...Option) *TaskListRepository {
	r := &TaskListRepository{
		db:    db,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const (
	listColumns = `id, title, description, created, updated`
	taskColumns = `id, list_id, title, description, due_date, status, priority, created, updated`
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanList(row rowScanner) (domain.TaskList, error) {
	var l domain.TaskList
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Created, &l.Updated)
	l.Created, l.Updated = l.Created.UTC(), l.Updated.UTC()
	l.Tasks = []domain.Task{}
	return l, err
}

func scanTask(row rowScanner) (domain.Task, string, error) {
	var (
		t      domain.Task
		listID string
		due    sql.NullTime
		status string
		prio   string
	)
	if err := row.Scan(&t.ID, &listID, &t.Title, &t.Description, &due, &status, &prio, &t.Created, &t.Updated); err != nil {
		return t, "", err
	}
	t.Created, t.Updated = t.Created.UTC(), t.Updated.UTC()
	t.DueDate = fromNullTime(due)
	t.Status = domain.Status(status)
	t.Priority = domain.Priority(prio)
	return t, listID, nil
}

func (r *TaskListRepository) ListTaskLists(ctx context.Context) ([]domain.TaskList, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+listColumns+` FROM task_lists ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query task lists: %w", err)
	}
	defer rows.Close()

	lists := []domain.TaskList{}
	index := make(map[string]int)
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task list: %w", err)
		}
		index[l.ID] = len(lists)
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query task lists: %w", err)
	}

	taskRows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer taskRows.Close()
	for taskRows.Next() {
		t, listID, err := scanTask(taskRows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if i, ok := index[listID]; ok {
			lists[i].Tasks = append(lists[i].Tasks, t)
		}
	}
	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	return lists, nil
}

func (r *TaskListRepository) GetTaskList(ctx context.Context, id string) (*domain.TaskList, error) {
	return getTaskList(ctx, r.db, id, false)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func getTaskList(ctx context.Context, q querier, id string, forUpdate bool) (*domain.TaskList, error) {
	query := `SELECT ` + listColumns + ` FROM task_lists WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	l, err := scanList(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, listNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task list %s: %w", id, err)
	}

	rows, err := q.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE list_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query tasks of %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		t, _, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		l.Tasks = append(l.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query tasks of %s: %w", id, err)
	}
	return &l, nil
}

func (r *TaskListRepository) CreateTaskList(ctx context.Context, in domain.TaskListInput) (*domain.TaskList, error) {
	l := domain.NewTaskList(r.newID(), in, r.stamp())
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO task_lists (id, title, description, created, updated) VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.Title, l.Description, l.Created, l.Updated)
	if err != nil {
		return nil, fmt.Errorf("insert task list: %w", err)
	}
	return &l, nil
}

func (r *TaskListRepository) UpdateTaskList(ctx context.Context, id string, patch domain.TaskListPatch) (*domain.TaskList, error) {
	var out *domain.TaskList
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		l, err := getTaskList(ctx, tx, id, true)
		if err != nil {
			return err
		}
		patch.Apply(l)
		l.Updated = r.advance(l.Updated)
		if _, err := tx.ExecContext(ctx,
			`UPDATE task_lists SET title = $1, description = $2, updated = $3 WHERE id = $4`,
			l.Title, l.Description, l.Updated, id); err != nil {
			return fmt.Errorf("update task list %s: %w", id, err)
		}
		out = l
		return nil
	})
	return out, err
}

func (r *TaskListRepository) DeleteTaskList(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task list %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return listNotFound(id)
	}
	return nil
}

func (r *TaskListRepository) GetTask(ctx context.Context, listID, taskID string) (*domain.Task, error) {
	return getTask(ctx, r.db, listID, taskID, false)
}

func getTask(ctx context.Context, q querier, listID, taskID string, forUpdate bool) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE list_id = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	t, _, err := scanTask(q.QueryRowContext(ctx, query, listID, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, taskNotFound(listID, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return &t, nil
}

func (r *TaskListRepository) CreateTask(ctx context.Context, listID string, in domain.TaskInput) (*domain.Task, error) {
	t := domain.NewTask(r.newID(), in, r.stamp())
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := touchList(ctx, tx, listID, t.Created); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.ID, listID, t.Title, t.Description, toNullTime(t.DueDate), string(t.Status), string(t.Priority), t.Created, t.Updated)
		if isForeignKeyViolation(err) {
			return listNotFound(listID)
		}
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskListRepository) UpdateTask(ctx context.Context, listID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	var out *domain.Task
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		t, err := getTask(ctx, tx, listID, taskID, true)
		if err != nil {
			return err
		}
		patch.Apply(t)
		t.Updated = r.advance(t.Updated)
		if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET title = $1, description = $2, due_date = $3, status = $4, priority = $5, updated = $6
			 WHERE list_id = $7 AND id = $8`,
			t.Title, t.Description, toNullTime(t.DueDate), string(t.Status), string(t.Priority), t.Updated, listID, taskID); err != nil {
			return fmt.Errorf("update task %s: %w", taskID, err)
		}
		if err := touchList(ctx, tx, listID, t.Updated); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

func (r *TaskListRepository) DeleteTask(ctx context.Context, listID, taskID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE list_id = $1 AND id = $2`, listID, taskID)
		if err != nil {
			return fmt.Errorf("delete task %s: %w", taskID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return taskNotFound(listID, taskID)
		}
		return touchList(ctx, tx, listID, r.stamp())
	})
}

// touchList moves the list's updated stamp to at, or one tick past its
// current value when at is not later.
func touchList(ctx context.Context, tx *sql.Tx, listID string, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE task_lists SET updated = GREATEST($1, updated + interval '1 microsecond') WHERE id = $2`,
		at, listID)
	if err != nil {
		return fmt.Errorf("touch task list %s: %w", listID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return listNotFound(listID)
	}
	return nil
}

func (r *TaskListRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *TaskListRepository) stamp() time.Time {
	return r.now().UTC().Truncate(resolution)
}

func (r *TaskListRepository) advance(prev time.Time) time.Time {
	now := r.stamp()
	if !now.After(prev) {
		return prev.Add(resolution)
	}
	return now
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

func toNullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func fromNullTime(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time.UTC()
}

func listNotFound(id string) error {
	return fmt.Errorf("task list %s: %w", id, domain.ErrNotFound)
}

func taskNotFound(listID, taskID string) error {
	return fmt.Errorf("task %s in list %s: %w", taskID, listID, domain.ErrNotFound)
}
