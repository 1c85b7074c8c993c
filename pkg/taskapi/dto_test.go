package taskapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-02-01T23:59:59Z"`, time.Date(2024, 2, 1, 23, 59, 59, 0, time.UTC)},
		{`"2024-02-01T23:59:59"`, time.Date(2024, 2, 1, 23, 59, 59, 0, time.UTC)},
		{`"2024-02-01"`, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{`null`, time.Time{}},
		{`""`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got Time
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.True(t, tt.want.Equal(got.Time), "got %v", got.Time)
		})
	}

	var bad Time
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestLegacyTaskListDecoding(t *testing.T) {
	body := `{
		"id": "1",
		"title": "Work Projects",
		"description": "",
		"createdDate": "2024-01-15T09:00:00Z",
		"updatedDate": "2024-01-20T14:30:00Z",
		"tasks": [{
			"id": "2",
			"title": "Review code changes",
			"dueDate": "2024-01-25T17:00:00",
			"status": "closed",
			"priority": "medium",
			"createdDate": "2024-01-16T10:30:00Z",
			"updatedDate": "2024-01-20T14:30:00Z"
		}]
	}`
	var wire TaskList
	require.NoError(t, json.Unmarshal([]byte(body), &wire))
	l := wire.Domain()

	assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), l.Created)
	assert.Equal(t, time.Date(2024, 1, 20, 14, 30, 0, 0, time.UTC), l.Updated)
	require.Len(t, l.Tasks, 1)
	assert.Equal(t, domain.StatusClosed, l.Tasks[0].Status)
	assert.Equal(t, domain.PriorityMedium, l.Tasks[0].Priority)
	assert.Equal(t, time.Date(2024, 1, 16, 10, 30, 0, 0, time.UTC), l.Tasks[0].Created)
	assert.Equal(t, domain.Stats{Total: 1, Completed: 1, Progress: 100}, wire.Stats())
}

func TestRemoteProgressFractionIsNormalized(t *testing.T) {
	var wire TaskList
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","title":"x","count":3,"progress":0.6667}`), &wire))
	assert.Equal(t, domain.Stats{Total: 3, Completed: 2, Progress: 67}, wire.Stats())
}

func TestTaskRequestConversions(t *testing.T) {
	var req TaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Ship docs","priority":"high","dueDate":"2024-02-01T23:59:59"}`), &req))

	in, err := req.Input()
	require.NoError(t, err)
	assert.Equal(t, "Ship docs", in.Title)
	assert.Equal(t, domain.PriorityHigh, in.Priority)
	assert.Equal(t, domain.Status(""), in.Status)

	patch, err := req.Patch()
	require.NoError(t, err)
	assert.Nil(t, patch.Description)
	assert.Nil(t, patch.Status)
	require.NotNil(t, patch.Priority)
	assert.Equal(t, domain.PriorityHigh, *patch.Priority)

	bad := "someday"
	_, err = TaskRequest{Status: &bad}.Patch()
	assert.True(t, domain.IsValidation(err))
}

func TestNewTaskRequestCarriesEveryField(t *testing.T) {
	due := time.Date(2024, 2, 1, 23, 59, 59, 0, time.UTC)
	b, err := json.Marshal(NewTaskRequest(domain.Task{
		ID:       "t1",
		Title:    "Ship docs",
		DueDate:  due,
		Status:   domain.StatusClosed,
		Priority: domain.PriorityHigh,
		Created:  due,
		Updated:  due,
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"t1","title":"Ship docs","description":"","dueDate":"2024-02-01T23:59:59Z","status":"CLOSED","priority":"HIGH"}`, string(b))
}
