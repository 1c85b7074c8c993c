// Package taskquery filters and sorts the tasks of a list for display.
// Every function is pure: the input slice is never modified.
package taskquery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/locvowork/tasktracker/internal/domain"
)

type StatusFilter string

const (
	StatusAll    StatusFilter = "all"
	StatusOpen   StatusFilter = "open"
	StatusClosed StatusFilter = "closed"
)

type PriorityFilter string

const (
	PriorityAll    PriorityFilter = "all"
	PriorityLow    PriorityFilter = "low"
	PriorityMedium PriorityFilter = "medium"
	PriorityHigh   PriorityFilter = "high"
)

type SortKey string

const (
	SortByDueDate  SortKey = "dueDate"
	SortByPriority SortKey = "priority"
	SortByCreated  SortKey = "created"
)

// Params selects which tasks to keep and how to order them.
type Params struct {
	Status   StatusFilter
	Priority PriorityFilter
	SortBy   SortKey
}

// DefaultParams keeps every task, earliest due date first.
func DefaultParams() Params {
	return Params{Status: StatusAll, Priority: PriorityAll, SortBy: SortByDueDate}
}

// ParseParams reads filter values from user input. Empty strings select the
// defaults. Matching is case-insensitive.
func ParseParams(status, priority, sortBy string) (Params, error) {
	p := DefaultParams()

	switch s := StatusFilter(strings.ToLower(strings.TrimSpace(status))); s {
	case "":
	case StatusAll, StatusOpen, StatusClosed:
		p.Status = s
	default:
		return p, fmt.Errorf("%w: status filter must be one of all, open, closed", domain.ErrValidation)
	}

	switch pr := PriorityFilter(strings.ToLower(strings.TrimSpace(priority))); pr {
	case "":
	case PriorityAll, PriorityLow, PriorityMedium, PriorityHigh:
		p.Priority = pr
	default:
		return p, fmt.Errorf("%w: priority filter must be one of all, low, medium, high", domain.ErrValidation)
	}

	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "":
	case "duedate", "due":
		p.SortBy = SortByDueDate
	case "priority":
		p.SortBy = SortByPriority
	case "created":
		p.SortBy = SortByCreated
	default:
		return p, fmt.Errorf("%w: sort must be one of dueDate, priority, created", domain.ErrValidation)
	}
	return p, nil
}

// Apply filters by status, then priority, then sorts. The result is a new
// slice; ties keep their original relative order.
func Apply(tasks []domain.Task, p Params) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchStatus(t, p.Status) && matchPriority(t, p.Priority) {
			out = append(out, t)
		}
	}

	switch p.SortBy {
	case SortByPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority.Rank() > out[j].Priority.Rank()
		})
	case SortByCreated:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Created.After(out[j].Created)
		})
	case SortByDueDate, "":
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DueDate.Before(out[j].DueDate)
		})
	}
	return out
}

// Stats is the stats of the tasks that pass the filters of p.
func Stats(tasks []domain.Task, p Params) domain.Stats {
	return domain.ComputeStats(Apply(tasks, p))
}

func matchStatus(t domain.Task, f StatusFilter) bool {
	switch f {
	case StatusOpen:
		return t.Status == domain.StatusOpen
	case StatusClosed:
		return t.Status == domain.StatusClosed
	}
	return true
}

func matchPriority(t domain.Task, f PriorityFilter) bool {
	if f == "" || f == PriorityAll {
		return true
	}
	return strings.EqualFold(string(t.Priority), string(f))
}
