package googlecloud

import (
	"sort"
	"time"

	"cloud.google.com/go/datastore"

	"github.com/locvowork/tasktracker/internal/domain"
)

const (
	KindTaskList = "TaskList"
	KindTask     = "Task"
)

// taskListEntity is the stored form of a task list. Tasks live in their own
// entities under the list key.
type taskListEntity struct {
	Title       string    `datastore:"title"`
	Description string    `datastore:"description,noindex"`
	CreatedAt   time.Time `datastore:"created_at"`
	UpdatedAt   time.Time `datastore:"updated_at"`
}

type taskEntity struct {
	Title       string    `datastore:"title"`
	Description string    `datastore:"description,noindex"`
	DueDate     time.Time `datastore:"due_date,omitempty"`
	Status      string    `datastore:"status"`
	Priority    string    `datastore:"priority"`
	CreatedAt   time.Time `datastore:"created_at"`
	UpdatedAt   time.Time `datastore:"updated_at"`
}

func listKey(id string) *datastore.Key {
	return datastore.NameKey(KindTaskList, id, nil)
}

func taskKey(listID, taskID string) *datastore.Key {
	return datastore.NameKey(KindTask, taskID, listKey(listID))
}

func toListEntity(l domain.TaskList) *taskListEntity {
	return &taskListEntity{
		Title:       l.Title,
		Description: l.Description,
		CreatedAt:   l.Created,
		UpdatedAt:   l.Updated,
	}
}

func (e taskListEntity) toDomain(id string) domain.TaskList {
	return domain.TaskList{
		ID:          id,
		Title:       e.Title,
		Description: e.Description,
		Tasks:       []domain.Task{},
		Created:     e.CreatedAt.UTC(),
		Updated:     e.UpdatedAt.UTC(),
	}
}

func toTaskEntity(t domain.Task) *taskEntity {
	return &taskEntity{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   t.Created,
		UpdatedAt:   t.Updated,
	}
}

func (e taskEntity) toDomain(id string) domain.Task {
	t := domain.Task{
		ID:          id,
		Title:       e.Title,
		Description: e.Description,
		Status:      domain.Status(e.Status),
		Priority:    domain.Priority(e.Priority),
		Created:     e.CreatedAt.UTC(),
		Updated:     e.UpdatedAt.UTC(),
	}
	if !e.DueDate.IsZero() {
		t.DueDate = e.DueDate.UTC()
	}
	return t
}

// sortTasks restores insertion order, which Datastore does not keep for
// name keys.
func sortTasks(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Created.Before(tasks[j].Created)
	})
}
