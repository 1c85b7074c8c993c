package googlecloud

import (
	"context"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	"github.com/locvowork/tasktracker/internal/domain"
)

// ListTaskLists returns every list in creation order with its tasks.
func (c *Client) ListTaskLists(ctx context.Context) ([]domain.TaskList, error) {
	var lists []domain.TaskList
	err := WithRetry(ctx, c.retry, func() error {
		lists = []domain.TaskList{}
		it := c.ds.Run(ctx, datastore.NewQuery(KindTaskList).Order("created_at"))
		for {
			var e taskListEntity
			key, err := it.Next(&e)
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return err
			}
			lists = append(lists, e.toDomain(key.Name))
		}
	})
	if err != nil {
		return nil, WrapDatastoreError(err, "list task lists")
	}

	var (
		entities []taskEntity
		keys     []*datastore.Key
	)
	err = WithRetry(ctx, c.retry, func() error {
		entities = nil
		var err error
		keys, err = c.ds.GetAll(ctx, datastore.NewQuery(KindTask), &entities)
		return err
	})
	if err != nil {
		return nil, WrapDatastoreError(err, "list tasks")
	}

	index := make(map[string]int, len(lists))
	for i, l := range lists {
		index[l.ID] = i
	}
	for i, key := range keys {
		if key.Parent == nil {
			continue
		}
		if li, ok := index[key.Parent.Name]; ok {
			lists[li].Tasks = append(lists[li].Tasks, entities[i].toDomain(key.Name))
		}
	}
	for i := range lists {
		sortTasks(lists[i].Tasks)
	}
	return lists, nil
}

// GetTaskList retrieves a task list by ID.
func (c *Client) GetTaskList(ctx context.Context, id string) (*domain.TaskList, error) {
	var e taskListEntity
	err := WithRetry(ctx, c.retry, func() error {
		return c.ds.Get(ctx, listKey(id), &e)
	})
	if err != nil {
		return nil, WrapDatastoreError(err, "task list "+id)
	}
	l := e.toDomain(id)
	tasks, err := c.listTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Tasks = tasks
	return &l, nil
}

// listTasks retrieves the tasks of a list with an ancestor query.
func (c *Client) listTasks(ctx context.Context, listID string) ([]domain.Task, error) {
	var (
		entities []taskEntity
		keys     []*datastore.Key
	)
	err := WithRetry(ctx, c.retry, func() error {
		entities = nil
		var err error
		keys, err = c.ds.GetAll(ctx, datastore.NewQuery(KindTask).Ancestor(listKey(listID)), &entities)
		return err
	})
	if err != nil {
		return nil, WrapDatastoreError(err, "tasks of "+listID)
	}
	tasks := make([]domain.Task, len(keys))
	for i, key := range keys {
		tasks[i] = entities[i].toDomain(key.Name)
	}
	sortTasks(tasks)
	return tasks, nil
}

// CreateTaskList stores a new empty list under a generated name key.
func (c *Client) CreateTaskList(ctx context.Context, in domain.TaskListInput) (*domain.TaskList, error) {
	l := domain.NewTaskList(c.newID(), in, c.stamp())
	if _, err := c.ds.Put(ctx, listKey(l.ID), toListEntity(l)); err != nil {
		return nil, WrapDatastoreError(err, "create task list")
	}
	return &l, nil
}

func (c *Client) UpdateTaskList(ctx context.Context, id string, patch domain.TaskListPatch) (*domain.TaskList, error) {
	key := listKey(id)
	var l domain.TaskList
	_, err := c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var e taskListEntity
		if err := tx.Get(key, &e); err != nil {
			return err
		}
		l = e.toDomain(id)
		patch.Apply(&l)
		l.Updated = c.after(l.Updated)
		_, err := tx.Put(key, toListEntity(l))
		return err
	})
	if err != nil {
		return nil, WrapDatastoreError(err, "task list "+id)
	}
	tasks, err := c.listTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Tasks = tasks
	return &l, nil
}

// DeleteTaskList removes the list and all of its tasks in one transaction.
func (c *Client) DeleteTaskList(ctx context.Context, id string) error {
	key := listKey(id)
	_, err := c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var e taskListEntity
		if err := tx.Get(key, &e); err != nil {
			return err
		}
		query := datastore.NewQuery(KindTask).Ancestor(key).KeysOnly().Transaction(tx)
		keys, err := c.ds.GetAll(ctx, query, nil)
		if err != nil {
			return err
		}
		return tx.DeleteMulti(append(keys, key))
	})
	return WrapDatastoreError(err, "task list "+id)
}
