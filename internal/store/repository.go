package store

import (
	"context"
	"fmt"

	"github.com/locvowork/tasktracker/internal/domain"
)

// Repository adapts a Store to domain.TaskListRepository, turning the
// store's not-found flags into domain.ErrNotFound.
type Repository struct {
	store *Store
}

var _ domain.TaskListRepository = (*Repository)(nil)

func NewRepository(s *Store) *Repository {
	return &Repository{store: s}
}

// Store returns the wrapped store.
func (r *Repository) Store() *Store {
	return r.store
}

func (r *Repository) ListTaskLists(_ context.Context) ([]domain.TaskList, error) {
	return r.store.ListTaskLists(), nil
}

func (r *Repository) GetTaskList(_ context.Context, id string) (*domain.TaskList, error) {
	l, ok := r.store.GetTaskList(id)
	if !ok {
		return nil, listNotFound(id)
	}
	return &l, nil
}

func (r *Repository) CreateTaskList(_ context.Context, in domain.TaskListInput) (*domain.TaskList, error) {
	l := r.store.CreateTaskList(in.Title, in.Description)
	return &l, nil
}

func (r *Repository) UpdateTaskList(_ context.Context, id string, patch domain.TaskListPatch) (*domain.TaskList, error) {
	l, ok := r.store.UpdateTaskList(id, patch)
	if !ok {
		return nil, listNotFound(id)
	}
	return &l, nil
}

func (r *Repository) DeleteTaskList(_ context.Context, id string) error {
	if !r.store.DeleteTaskList(id) {
		return listNotFound(id)
	}
	return nil
}

func (r *Repository) GetTask(_ context.Context, listID, taskID string) (*domain.Task, error) {
	t, ok := r.store.GetTask(listID, taskID)
	if !ok {
		return nil, taskNotFound(listID, taskID)
	}
	return &t, nil
}

func (r *Repository) CreateTask(_ context.Context, listID string, in domain.TaskInput) (*domain.Task, error) {
	t, ok := r.store.CreateTask(listID, in)
	if !ok {
		return nil, listNotFound(listID)
	}
	return &t, nil
}

func (r *Repository) UpdateTask(_ context.Context, listID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	t, ok := r.store.UpdateTask(listID, taskID, patch)
	if !ok {
		return nil, taskNotFound(listID, taskID)
	}
	return &t, nil
}

func (r *Repository) DeleteTask(_ context.Context, listID, taskID string) error {
	if !r.store.DeleteTask(listID, taskID) {
		return taskNotFound(listID, taskID)
	}
	return nil
}

func listNotFound(id string) error {
	return fmt.Errorf("task list %s: %w", id, domain.ErrNotFound)
}

func taskNotFound(listID, taskID string) error {
	return fmt.Errorf("task %s in list %s: %w", taskID, listID, domain.ErrNotFound)
}
