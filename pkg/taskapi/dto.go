// Package taskapi defines the JSON shapes exchanged between the task list
// HTTP server and its clients.
package taskapi

import (
	"math"
	"strings"
	"time"

	"github.com/locvowork/tasktracker/internal/domain"
)

// TaskListRequest is the body of POST and PUT /task-lists[/{id}]. Absent
// fields decode to nil and are left unchanged on update.
type TaskListRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r TaskListRequest) Input() domain.TaskListInput {
	var in domain.TaskListInput
	if r.Title != nil {
		in.Title = *r.Title
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	return in
}

func (r TaskListRequest) Patch() domain.TaskListPatch {
	return domain.TaskListPatch{Title: r.Title, Description: r.Description}
}

// TaskRequest is the body of POST and PUT task endpoints. Clients may echo
// back the whole task; id, created and updated are ignored.
type TaskRequest struct {
	ID          string  `json:"id,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *Time   `json:"dueDate,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

// Input converts a create request. Status and priority are parsed
// case-insensitively; missing values take the domain defaults.
func (r TaskRequest) Input() (domain.TaskInput, error) {
	var in domain.TaskInput
	if r.Title != nil {
		in.Title = *r.Title
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	if r.DueDate != nil {
		in.DueDate = r.DueDate.Time
	}
	var err error
	if r.Status != nil {
		if in.Status, err = domain.ParseStatus(*r.Status); err != nil {
			return in, err
		}
	}
	if r.Priority != nil {
		if in.Priority, err = domain.ParsePriority(*r.Priority); err != nil {
			return in, err
		}
	}
	return in, nil
}

// Patch converts an update request.
func (r TaskRequest) Patch() (domain.TaskPatch, error) {
	p := domain.TaskPatch{Title: r.Title, Description: r.Description}
	if r.DueDate != nil {
		due := r.DueDate.Time
		p.DueDate = &due
	}
	if r.Status != nil {
		s, err := domain.ParseStatus(*r.Status)
		if err != nil {
			return p, err
		}
		p.Status = &s
	}
	if r.Priority != nil {
		pr, err := domain.ParsePriority(*r.Priority)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	return p, nil
}

// NewTaskRequest builds a full request body from a task, as sent by clients
// that update a task by replacing it.
func NewTaskRequest(t domain.Task) TaskRequest {
	status := string(t.Status)
	priority := string(t.Priority)
	due := NewTime(t.DueDate)
	return TaskRequest{
		ID:          t.ID,
		Title:       &t.Title,
		Description: &t.Description,
		DueDate:     &due,
		Status:      &status,
		Priority:    &priority,
	}
}

// TaskRequestFromInput builds a create body.
func TaskRequestFromInput(in domain.TaskInput) TaskRequest {
	in = in.Normalize()
	return NewTaskRequest(domain.Task{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      in.Status,
		Priority:    in.Priority,
	})
}

// Task is a task as read from the wire. It tolerates the legacy
// createdDate/updatedDate names and any letter case in enums.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     Time   `json:"dueDate"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Created     *Time  `json:"created,omitempty"`
	Updated     *Time  `json:"updated,omitempty"`
	CreatedDate *Time  `json:"createdDate,omitempty"`
	UpdatedDate *Time  `json:"updatedDate,omitempty"`
}

// Domain normalizes the wire task into the canonical model.
func (t Task) Domain() domain.Task {
	status, err := domain.ParseStatus(t.Status)
	if err != nil {
		status = domain.Status(strings.ToUpper(t.Status))
	}
	priority, err := domain.ParsePriority(t.Priority)
	if err != nil {
		priority = domain.Priority(strings.ToUpper(t.Priority))
	}
	return domain.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate.Time,
		Status:      status,
		Priority:    priority,
		Created:     firstTime(t.Created, t.CreatedDate),
		Updated:     firstTime(t.Updated, t.UpdatedDate),
	}
}

// TaskList is a task list as read from the wire. Count and Progress are the
// server-side summary some backends attach; Progress is a 0-1 fraction there.
type TaskList struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tasks       []Task   `json:"tasks"`
	Count       *int     `json:"count,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
	Created     *Time    `json:"created,omitempty"`
	Updated     *Time    `json:"updated,omitempty"`
	CreatedDate *Time    `json:"createdDate,omitempty"`
	UpdatedDate *Time    `json:"updatedDate,omitempty"`
}

func (l TaskList) Domain() domain.TaskList {
	tasks := make([]domain.Task, len(l.Tasks))
	for i, t := range l.Tasks {
		tasks[i] = t.Domain()
	}
	return domain.TaskList{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Tasks:       tasks,
		Created:     firstTime(l.Created, l.CreatedDate),
		Updated:     firstTime(l.Updated, l.UpdatedDate),
	}
}

// Stats prefers the server-reported count and progress fraction, converted
// to a 0-100 percentage, and falls back to computing from the tasks.
func (l TaskList) Stats() domain.Stats {
	computed := domain.ComputeStats(l.Domain().Tasks)
	if l.Count == nil || l.Progress == nil || len(l.Tasks) > 0 {
		return computed
	}
	total := *l.Count
	progress := int(math.Round(*l.Progress * 100))
	return domain.Stats{
		Total:     total,
		Completed: int(math.Round(*l.Progress * float64(total))),
		Progress:  progress,
	}
}

// ErrorResponse is the JSON body of every non-2xx response of the server.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func firstTime(ts ...*Time) time.Time {
	for _, t := range ts {
		if t != nil && !t.IsZero() {
			return t.Time
		}
	}
	return time.Time{}
}
