package domain

import "context"

// TaskListRepository is the operation set every backend exposes: the
// in-memory store adapter, SQL and Datastore persistence, and the remote
// gateway. Unknown ids are reported as ErrNotFound; any other error is a
// backend or transport failure.
type TaskListRepository interface {
	ListTaskLists(ctx context.Context) ([]TaskList, error)
	GetTaskList(ctx context.Context, id string) (*TaskList, error)
	CreateTaskList(ctx context.Context, in TaskListInput) (*TaskList, error)
	UpdateTaskList(ctx context.Context, id string, patch TaskListPatch) (*TaskList, error)
	DeleteTaskList(ctx context.Context, id string) error

	GetTask(ctx context.Context, listID, taskID string) (*Task, error)
	CreateTask(ctx context.Context, listID string, in TaskInput) (*Task, error)
	UpdateTask(ctx context.Context, listID, taskID string, patch TaskPatch) (*Task, error)
	DeleteTask(ctx context.Context, listID, taskID string) error
}
