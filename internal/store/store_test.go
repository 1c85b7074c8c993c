package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// tickingClock advances one second on every read.
func tickingClock() func() time.Time {
	now := epoch
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(opts ...Option) *Store {
	return New(append([]Option{WithClock(tickingClock()), WithIDGenerator(sequentialIDs())}, opts...)...)
}

func TestCreateTaskList(t *testing.T) {
	s := New()
	before := time.Now()
	l := s.CreateTaskList("Work", "Tasks related to work")

	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "Work", l.Title)
	assert.Equal(t, l.Created, l.Updated)
	assert.False(t, l.Created.Before(before))
	assert.False(t, l.Created.After(time.Now()))
	assert.Empty(t, l.Tasks)

	got, ok := s.GetTaskList(l.ID)
	require.True(t, ok)
	assert.Equal(t, l, got)
}

func TestUUIDsAreUnique(t *testing.T) {
	s := New()
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		l := s.CreateTaskList("list", "")
		require.False(t, seen[l.ID], "duplicate id %s", l.ID)
		seen[l.ID] = true
	}
}

func TestListTaskListsReturnsSnapshot(t *testing.T) {
	s := newTestStore()
	l := s.CreateTaskList("Work", "")
	s.CreateTask(l.ID, domain.TaskInput{Title: "first"})

	snapshot := s.ListTaskLists()
	require.Len(t, snapshot, 1)
	require.Len(t, snapshot[0].Tasks, 1)

	s.CreateTask(l.ID, domain.TaskInput{Title: "second"})
	title := "Renamed"
	s.UpdateTaskList(l.ID, domain.TaskListPatch{Title: &title})
	snapshot[0].Tasks[0].Title = "mutated by caller"

	assert.Len(t, snapshot[0].Tasks, 1)
	assert.Equal(t, "Work", snapshot[0].Title)

	current, _ := s.GetTaskList(l.ID)
	assert.Equal(t, "first", current.Tasks[0].Title)
	assert.Len(t, current.Tasks, 2)
}

func TestUpdateTaskListChangesOnlyPresentFields(t *testing.T) {
	s := newTestStore()
	l := s.CreateTaskList("Work", "original description")

	title := "Work projects"
	updated, ok := s.UpdateTaskList(l.ID, domain.TaskListPatch{Title: &title})
	require.True(t, ok)

	assert.Equal(t, "Work projects", updated.Title)
	assert.Equal(t, "original description", updated.Description)
	assert.Equal(t, l.Created, updated.Created)
	assert.True(t, updated.Updated.After(l.Updated))

	_, ok = s.UpdateTaskList("missing", domain.TaskListPatch{Title: &title})
	assert.False(t, ok)
}

func TestUpdatedStrictlyAdvancesWithFrozenClock(t *testing.T) {
	frozen := epoch
	s := New(WithClock(func() time.Time { return frozen }))
	l := s.CreateTaskList("Work", "")

	desc := "x"
	first, _ := s.UpdateTaskList(l.ID, domain.TaskListPatch{Description: &desc})
	second, _ := s.UpdateTaskList(l.ID, domain.TaskListPatch{Description: &desc})

	assert.True(t, first.Updated.After(l.Updated))
	assert.True(t, second.Updated.After(first.Updated))
	assert.Equal(t, l.Created, second.Created)
}

func TestDeleteTaskListRemovesTasks(t *testing.T) {
	s := newTestStore()
	l := s.CreateTaskList("Work", "")
	var taskIDs []string
	for i := 0; i < 3; i++ {
		task, ok := s.CreateTask(l.ID, domain.TaskInput{Title: fmt.Sprintf("task %d", i)})
		require.True(t, ok)
		taskIDs = append(taskIDs, task.ID)
	}

	require.True(t, s.DeleteTaskList(l.ID))

	_, ok := s.GetTaskList(l.ID)
	assert.False(t, ok)
	for _, id := range taskIDs {
		_, ok := s.GetTask(l.ID, id)
		assert.False(t, ok)
	}
	for _, other := range s.ListTaskLists() {
		for _, task := range other.Tasks {
			assert.NotContains(t, taskIDs, task.ID)
		}
	}
	assert.False(t, s.DeleteTaskList(l.ID))
}

func TestTaskMutationsTouchParentList(t *testing.T) {
	s := newTestStore()
	l := s.CreateTaskList("Work", "")

	task, ok := s.CreateTask(l.ID, domain.TaskInput{Title: "Ship docs"})
	require.True(t, ok)
	assert.Equal(t, task.Created, task.Updated)
	afterCreate, _ := s.GetTaskList(l.ID)
	assert.True(t, afterCreate.Updated.After(l.Updated))

	closed := domain.StatusClosed
	updatedTask, ok := s.UpdateTask(l.ID, task.ID, domain.TaskPatch{Status: &closed})
	require.True(t, ok)
	assert.True(t, updatedTask.Updated.After(task.Updated))
	assert.Equal(t, task.Created, updatedTask.Created)
	afterUpdate, _ := s.GetTaskList(l.ID)
	assert.True(t, afterUpdate.Updated.After(afterCreate.Updated))

	require.True(t, s.DeleteTask(l.ID, task.ID))
	afterDelete, _ := s.GetTaskList(l.ID)
	assert.True(t, afterDelete.Updated.After(afterUpdate.Updated))
	assert.Empty(t, afterDelete.Tasks)
	assert.Equal(t, l.Created, afterDelete.Created)
}

func TestCreateTaskDefaults(t *testing.T) {
	s := newTestStore()
	l := s.CreateTaskList("Work", "")
	task, ok := s.CreateTask(l.ID, domain.TaskInput{Title: "  Review  "})
	require.True(t, ok)

	assert.Equal(t, "Review", task.Title)
	assert.Equal(t, domain.StatusOpen, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
}

func TestUnknownIDsReturnNotFound(t *testing.T) {
	s := newTestStore()
	l := s.CreateTaskList("Work", "")

	_, ok := s.CreateTask("missing", domain.TaskInput{Title: "x"})
	assert.False(t, ok)
	_, ok = s.UpdateTask(l.ID, "missing", domain.TaskPatch{})
	assert.False(t, ok)
	_, ok = s.UpdateTask("missing", "missing", domain.TaskPatch{})
	assert.False(t, ok)
	assert.False(t, s.DeleteTask(l.ID, "missing"))
	assert.False(t, s.DeleteTask("missing", "missing"))
	_, ok = s.GetTaskListStats("missing")
	assert.False(t, ok)
}

func TestWorkScenario(t *testing.T) {
	s := newTestStore()
	work := s.CreateTaskList("Work", "")
	task, ok := s.CreateTask(work.ID, domain.TaskInput{
		Title:    "Ship docs",
		Status:   domain.StatusOpen,
		Priority: domain.PriorityHigh,
	})
	require.True(t, ok)

	stats, ok := s.GetTaskListStats(work.ID)
	require.True(t, ok)
	assert.Equal(t, domain.Stats{Total: 1, Completed: 0, Progress: 0}, stats)

	_, ok = s.UpdateTask(work.ID, task.ID, domain.StatusPatch(domain.StatusClosed))
	require.True(t, ok)

	stats, _ = s.GetTaskListStats(work.ID)
	assert.Equal(t, domain.Stats{Total: 1, Completed: 1, Progress: 100}, stats)
}

func TestSubscribe(t *testing.T) {
	s := newTestStore()
	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })

	l := s.CreateTaskList("Work", "")
	assert.Equal(t, 1, calls)
	task, _ := s.CreateTask(l.ID, domain.TaskInput{Title: "a"})
	assert.Equal(t, 2, calls)
	s.UpdateTask(l.ID, task.ID, domain.StatusPatch(domain.StatusClosed))
	assert.Equal(t, 3, calls)
	title := "b"
	s.UpdateTaskList(l.ID, domain.TaskListPatch{Title: &title})
	assert.Equal(t, 4, calls)
	s.DeleteTask(l.ID, task.ID)
	assert.Equal(t, 5, calls)
	s.DeleteTaskList(l.ID)
	assert.Equal(t, 6, calls)

	t.Run("failed mutations do not notify", func(t *testing.T) {
		s.DeleteTaskList("missing")
		s.CreateTask("missing", domain.TaskInput{Title: "x"})
		assert.Equal(t, 6, calls)
	})

	t.Run("reads do not notify", func(t *testing.T) {
		s.ListTaskLists()
		s.GetTaskListStats("missing")
		assert.Equal(t, 6, calls)
	})

	unsubscribe()
	unsubscribe()
	s.CreateTaskList("Other", "")
	assert.Equal(t, 6, calls)
	assert.Equal(t, 0, s.listeners.len())
}

func TestSubscribeOrderAndReentrancy(t *testing.T) {
	s := newTestStore()
	var order []string
	var seen int

	s.Subscribe(func() { order = append(order, "first") })
	s.Subscribe(func() {
		order = append(order, "second")
		seen = len(s.ListTaskLists())
	})

	s.CreateTaskList("Work", "")

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 1, seen)
}

func TestWithTaskListsAndSummary(t *testing.T) {
	past := epoch.Add(-48 * time.Hour)
	s := newTestStore(WithTaskLists([]domain.TaskList{
		{ID: "1", Title: "Work", Tasks: []domain.Task{
			{ID: "t1", Status: domain.StatusClosed},
			{ID: "t2", Status: domain.StatusOpen, DueDate: past},
		}},
		{ID: "2", Title: "Home"},
	}))

	summary := s.Summary()
	assert.Equal(t, domain.Summary{Lists: 2, Total: 2, Completed: 1, Overdue: 1, Progress: 50}, summary)

	task, ok := s.GetTask("1", "t2")
	require.True(t, ok)
	assert.Equal(t, "t2", task.ID)
}
