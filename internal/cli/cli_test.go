package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/tasktracker/internal/bootstrap"
	"github.com/locvowork/tasktracker/internal/domain"
)

func newServer(t *testing.T) (*bootstrap.App, *httptest.Server) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SEED_FILE", bootstrap.SeedNone)
	t.Setenv("ELASTIC_URL", "")
	t.Setenv("EXPORT_TEMPLATE", "")

	app := bootstrap.NewApp()
	require.NoError(t, app.Initialize(context.Background()))
	srv := httptest.NewServer(app.Echo)
	t.Cleanup(srv.Close)
	return app, srv
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	app, srv := newServer(t)

	out, err := run(t, srv.URL, "lists")
	require.NoError(t, err)
	assert.Equal(t, "No task lists.\n", out)

	out, err = run(t, srv.URL, "list", "create", "--title", "Work", "--description", "Office")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Created task list "))
	listID := strings.TrimSpace(strings.TrimPrefix(out, "Created task list "))

	out, err = run(t, srv.URL, "task", "add", listID, "--title", "Ship docs", "--priority", "high", "--due", "2024-02-01T23:59:59")
	require.NoError(t, err)
	taskID := strings.TrimSpace(strings.TrimPrefix(out, "Created task "))

	_, err = run(t, srv.URL, "task", "add", listID, "--title", "Review", "--priority", "low")
	require.NoError(t, err)

	out, err = run(t, srv.URL, "task", "close", listID, taskID)
	require.NoError(t, err)
	assert.Contains(t, out, "CLOSED")

	t.Run("list show", func(t *testing.T) {
		out, err := run(t, srv.URL, "list", "show", listID)
		require.NoError(t, err)
		assert.Contains(t, out, "Work ("+listID+")")
		assert.Contains(t, out, "Progress: 1/2 (50%)")
		assert.Contains(t, out, "2024-02-01 23:59")
	})

	t.Run("tasks filtered and sorted", func(t *testing.T) {
		out, err := run(t, srv.URL, "tasks", listID, "--status", "open")
		require.NoError(t, err)
		assert.Contains(t, out, "Review")
		assert.NotContains(t, out, "Ship docs")

		out, err = run(t, srv.URL, "tasks", listID, "--sort", "priority")
		require.NoError(t, err)
		assert.Less(t, strings.Index(out, "Ship docs"), strings.Index(out, "Review"))
	})

	t.Run("stats and summary", func(t *testing.T) {
		out, err := run(t, srv.URL, "stats", listID)
		require.NoError(t, err)
		assert.Equal(t, "Total: 2\nCompleted: 1\nProgress: 50%\n", out)

		out, err = run(t, srv.URL, "summary")
		require.NoError(t, err)
		assert.Contains(t, out, "Lists: 1\n")
		assert.Contains(t, out, "Progress: 50%\n")
	})

	t.Run("reopen and update", func(t *testing.T) {
		_, err := run(t, srv.URL, "task", "reopen", listID, taskID)
		require.NoError(t, err)
		_, err = run(t, srv.URL, "task", "update", listID, taskID, "--title", "Ship API docs", "--due", "none")
		require.NoError(t, err)

		task, ok := app.Store.GetTask(listID, taskID)
		require.True(t, ok)
		assert.Equal(t, domain.StatusOpen, task.Status)
		assert.Equal(t, "Ship API docs", task.Title)
		assert.True(t, task.DueDate.IsZero())
	})

	t.Run("list update and delete", func(t *testing.T) {
		_, err := run(t, srv.URL, "list", "update", listID, "--title", "Work 2024")
		require.NoError(t, err)
		l, _ := app.Store.GetTaskList(listID)
		assert.Equal(t, "Work 2024", l.Title)
		assert.Equal(t, "Office", l.Description)

		_, err = run(t, srv.URL, "task", "delete", listID, taskID)
		require.NoError(t, err)
		_, err = run(t, srv.URL, "list", "delete", listID)
		require.NoError(t, err)
		assert.Empty(t, app.Store.ListTaskLists())
	})

	t.Run("unknown list reports the status", func(t *testing.T) {
		_, err := run(t, srv.URL, "list", "show", "missing")
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
		assert.Contains(t, err.Error(), "404")
	})
}

func TestValidationHappensBeforeAnyRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cases := [][]string{
		{"list", "create"},
		{"list", "update", "l1"},
		{"list", "update", "l1", "--title", "  "},
		{"task", "add", "l1"},
		{"task", "add", "l1", "--title", "x", "--priority", "urgent"},
		{"task", "add", "l1", "--title", "x", "--due", "tomorrow"},
		{"task", "update", "l1", "t1"},
		{"task", "update", "l1", "t1", "--status", "done"},
		{"tasks", "l1", "--sort", "title"},
	}
	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := run(t, srv.URL, args...)
			assert.Error(t, err)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestServerFlagDefaultsToEnv(t *testing.T) {
	t.Setenv(serverEnv, "http://tasks.internal:9000")
	cmd := NewRootCmd("test")
	assert.Equal(t, "http://tasks.internal:9000", cmd.PersistentFlags().Lookup("server").DefValue)
}
