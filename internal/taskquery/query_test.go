package taskquery

import (
	"testing"
	"time"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func sampleTasks() []domain.Task {
	return []domain.Task{
		{ID: "1", DueDate: date("2024-02-01"), Status: domain.StatusOpen, Priority: domain.PriorityHigh, Created: date("2024-01-15")},
		{ID: "2", DueDate: date("2024-01-25"), Status: domain.StatusClosed, Priority: domain.PriorityMedium, Created: date("2024-01-16")},
		{ID: "3", DueDate: date("2024-01-30"), Status: domain.StatusOpen, Priority: domain.PriorityLow, Created: date("2024-01-17")},
	}
}

func TestSortByDueDate(t *testing.T) {
	got := Apply(sampleTasks(), DefaultParams())
	assert.Equal(t, []string{"2", "3", "1"}, ids(got))
	assert.Equal(t, date("2024-01-25"), got[0].DueDate)
	assert.Equal(t, date("2024-02-01"), got[2].DueDate)
}

func TestSortByPriority(t *testing.T) {
	tasks := []domain.Task{
		{ID: "low", Priority: domain.PriorityLow},
		{ID: "high", Priority: domain.PriorityHigh},
		{ID: "medium", Priority: domain.PriorityMedium},
	}
	got := Apply(tasks, Params{SortBy: SortByPriority})
	assert.Equal(t, []string{"high", "medium", "low"}, ids(got))
}

func TestSortByPriorityIsStable(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", Priority: domain.PriorityMedium},
		{ID: "b", Priority: domain.PriorityHigh},
		{ID: "c", Priority: domain.PriorityMedium},
		{ID: "d", Priority: domain.PriorityHigh},
	}
	got := Apply(tasks, Params{SortBy: SortByPriority})
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(got))
}

func TestSortByCreatedNewestFirst(t *testing.T) {
	got := Apply(sampleTasks(), Params{SortBy: SortByCreated})
	assert.Equal(t, []string{"3", "2", "1"}, ids(got))
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want []string
	}{
		{"open only", Params{Status: StatusOpen, SortBy: SortByDueDate}, []string{"3", "1"}},
		{"closed only", Params{Status: StatusClosed, SortBy: SortByDueDate}, []string{"2"}},
		{"high only", Params{Priority: PriorityHigh, SortBy: SortByDueDate}, []string{"1"}},
		{"open and low", Params{Status: StatusOpen, Priority: PriorityLow}, []string{"3"}},
		{"closed and high", Params{Status: StatusClosed, Priority: PriorityHigh}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(sampleTasks(), tt.p)))
		})
	}
}

func TestApplyIsPureAndIdempotent(t *testing.T) {
	src := sampleTasks()
	orig := sampleTasks()
	p := Params{Status: StatusAll, Priority: PriorityAll, SortBy: SortByPriority}

	first := Apply(src, p)
	second := Apply(src, p)

	assert.Equal(t, first, second)
	assert.Equal(t, first, Apply(first, p))
	assert.Equal(t, orig, src)
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams("", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), p)

	p, err = ParseParams("OPEN", "High", "priority")
	require.NoError(t, err)
	assert.Equal(t, Params{Status: StatusOpen, Priority: PriorityHigh, SortBy: SortByPriority}, p)

	p, err = ParseParams("all", "all", "dueDate")
	require.NoError(t, err)
	assert.Equal(t, SortByDueDate, p.SortBy)

	_, err = ParseParams("done", "", "")
	assert.True(t, domain.IsValidation(err))
	_, err = ParseParams("", "urgent", "")
	assert.Error(t, err)
	_, err = ParseParams("", "", "title")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	st := Stats(sampleTasks(), Params{Status: StatusAll, Priority: PriorityAll})
	assert.Equal(t, domain.Stats{Total: 3, Completed: 1, Progress: 33}, st)
}
