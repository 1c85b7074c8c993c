package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/locvowork/tasktracker/internal/store"
	"github.com/locvowork/tasktracker/pkg/pipeline"
)

func newRepo() *store.Repository {
	n := 0
	return store.NewRepository(store.New(store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})))
}

func TestDefaultSeed(t *testing.T) {
	f := Default()
	require.Len(t, f.TaskLists, 3)
	assert.Equal(t, "Work Projects", f.TaskLists[0].Title)
	assert.Len(t, f.TaskLists[0].Tasks, 3)
	assert.Empty(t, f.TaskLists[2].Tasks)

	in, err := f.TaskLists[0].Tasks[0].Input()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 23, 59, 59, 0, time.UTC), in.DueDate)
	assert.Equal(t, domain.PriorityHigh, in.Priority)
}

func TestImportDefault(t *testing.T) {
	repo := newRepo()
	res, err := NewImporter(repo).Import(context.Background(), Default())
	require.NoError(t, err)
	assert.Equal(t, Result{Lists: 3, Tasks: 5}, res)

	lists, err := repo.ListTaskLists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 3)
	assert.Equal(t, "Work Projects", lists[0].Title)
	assert.Equal(t, "Personal Development", lists[1].Title)
	assert.Equal(t, "Home & Life", lists[2].Title)

	require.Len(t, lists[0].Tasks, 3)
	assert.Equal(t, "Complete API documentation", lists[0].Tasks[0].Title)
	assert.Equal(t, domain.StatusClosed, lists[0].Tasks[1].Status)
	assert.Equal(t, domain.Stats{Total: 2, Completed: 1, Progress: 50}, lists[1].Stats())
}

func TestImportWithWorkers(t *testing.T) {
	repo := newRepo()
	res, err := NewImporter(repo, WithWorkers(4)).Import(context.Background(), Default())
	require.NoError(t, err)
	assert.Equal(t, Result{Lists: 3, Tasks: 5}, res)

	lists, err := repo.ListTaskLists(context.Background())
	require.NoError(t, err)
	total := 0
	for _, l := range lists {
		total += len(l.Tasks)
	}
	assert.Equal(t, 5, total)
}

func TestImportRejectsInvalidDocumentBeforeWriting(t *testing.T) {
	cases := map[string]string{
		"missing list title": "task_lists:\n  - description: x\n",
		"missing task title": "task_lists:\n  - title: A\n    tasks:\n      - status: OPEN\n",
		"bad status":         "task_lists:\n  - title: A\n    tasks:\n      - title: t\n        status: DONE\n",
		"bad due date":       "task_lists:\n  - title: A\n    tasks:\n      - title: t\n        due_date: soon\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := Parse([]byte(doc))
			require.NoError(t, err)

			repo := newRepo()
			_, err = NewImporter(repo).Import(context.Background(), f)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))

			lists, _ := repo.ListTaskLists(context.Background())
			assert.Empty(t, lists)
		})
	}
}

// flakyRepo fails the first CreateTask call of every list.
type flakyRepo struct {
	*store.Repository
	mu     sync.Mutex
	failed map[string]bool
}

func (r *flakyRepo) CreateTask(ctx context.Context, listID string, in domain.TaskInput) (*domain.Task, error) {
	r.mu.Lock()
	first := !r.failed[listID]
	r.failed[listID] = true
	r.mu.Unlock()
	if first {
		return nil, errors.New("temporarily unavailable")
	}
	return r.Repository.CreateTask(ctx, listID, in)
}

func TestImportRetriesTransientFailures(t *testing.T) {
	repo := &flakyRepo{Repository: newRepo(), failed: map[string]bool{}}
	im := NewImporter(repo, WithRetryPolicy(pipeline.RetryPolicy{MaxRetries: 1, Retryable: Retryable}))

	res, err := im.Import(context.Background(), Default())
	require.NoError(t, err)
	assert.Equal(t, Result{Lists: 3, Tasks: 5}, res)

	lists, err := repo.ListTaskLists(context.Background())
	require.NoError(t, err)
	assert.Len(t, lists[0].Tasks, 3)
}

func TestImportStopsOnPermanentFailure(t *testing.T) {
	repo := &flakyRepo{Repository: newRepo(), failed: map[string]bool{}}
	im := NewImporter(repo, WithRetryPolicy(pipeline.RetryPolicy{}))

	_, err := im.Import(context.Background(), Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily unavailable")
}

func TestWithRetryBackoffWaitsConstantly(t *testing.T) {
	im := NewImporter(newRepo(), WithRetryBackoff(time.Millisecond))
	for retry := 1; retry <= 3; retry++ {
		assert.Equal(t, time.Millisecond, im.retry.BackoffFunc(retry))
	}
	assert.Equal(t, 2, im.retry.MaxRetries)

	exp := NewImporter(newRepo(), WithRetryBackoff(0))
	assert.Equal(t, 200*time.Millisecond, exp.retry.BackoffFunc(3))

	repo := &flakyRepo{Repository: newRepo(), failed: map[string]bool{}}
	res, err := NewImporter(repo, WithRetryBackoff(time.Millisecond)).Import(context.Background(), Default())
	require.NoError(t, err)
	assert.Equal(t, Result{Lists: 3, Tasks: 5}, res)
}

func TestImportCountsListsWithoutTasks(t *testing.T) {
	repo := newRepo()
	f := &File{TaskLists: []TaskList{{Title: "Errands"}, {Title: "Someday"}}}

	res, err := NewImporter(repo, WithWorkers(2)).Import(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, Result{Lists: 2, Tasks: 0}, res)

	lists, err := repo.ListTaskLists(context.Background())
	require.NoError(t, err)
	assert.Len(t, lists, 2)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(errors.New("connection reset")))
	assert.False(t, Retryable(fmt.Errorf("x: %w", domain.ErrValidation)))
	assert.False(t, Retryable(fmt.Errorf("x: %w", domain.ErrNotFound)))
	assert.False(t, Retryable(context.Canceled))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("task_lists:\n  - title: Errands\n"), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.TaskLists, 1)
	assert.Equal(t, "Errands", f.TaskLists[0].Title)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("task_lists: ["))
	assert.Error(t, err)
}
