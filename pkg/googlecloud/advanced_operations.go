package googlecloud

import (
	"context"
	"time"

	"cloud.google.com/go/datastore"

	"github.com/locvowork/tasktracker/internal/domain"
)

// Task writes run in a transaction that also moves the parent list's
// updated stamp, so a list never reports a stamp older than its tasks.

func (c *Client) GetTask(ctx context.Context, listID, taskID string) (*domain.Task, error) {
	var e taskEntity
	err := WithRetry(ctx, c.retry, func() error {
		return c.ds.Get(ctx, taskKey(listID, taskID), &e)
	})
	if err != nil {
		return nil, WrapDatastoreError(err, "task "+taskID)
	}
	t := e.toDomain(taskID)
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, listID string, in domain.TaskInput) (*domain.Task, error) {
	id := c.newID()
	var t domain.Task
	_, err := c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		t = domain.NewTask(id, in, c.stamp())
		if err := c.touchList(tx, listID, t.Created); err != nil {
			return err
		}
		_, err := tx.Put(taskKey(listID, id), toTaskEntity(t))
		return err
	})
	if err != nil {
		return nil, WrapDatastoreError(err, "task list "+listID)
	}
	return &t, nil
}

func (c *Client) UpdateTask(ctx context.Context, listID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	key := taskKey(listID, taskID)
	var t domain.Task
	_, err := c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var e taskEntity
		if err := tx.Get(key, &e); err != nil {
			return err
		}
		t = e.toDomain(taskID)
		patch.Apply(&t)
		t.Updated = c.after(t.Updated)
		if _, err := tx.Put(key, toTaskEntity(t)); err != nil {
			return err
		}
		return c.touchList(tx, listID, t.Updated)
	})
	if err != nil {
		return nil, WrapDatastoreError(err, "task "+taskID)
	}
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, listID, taskID string) error {
	key := taskKey(listID, taskID)
	_, err := c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var e taskEntity
		if err := tx.Get(key, &e); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return c.touchList(tx, listID, c.stamp())
	})
	return WrapDatastoreError(err, "task "+taskID)
}

func (c *Client) touchList(tx *datastore.Transaction, listID string, at time.Time) error {
	key := listKey(listID)
	var e taskListEntity
	if err := tx.Get(key, &e); err != nil {
		return err
	}
	e.UpdatedAt = touched(e.UpdatedAt, at)
	_, err := tx.Put(key, &e)
	return err
}
