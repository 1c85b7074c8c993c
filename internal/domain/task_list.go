package domain

import (
	"fmt"
	"strings"
	"time"
)

// TaskList is a named, ordered collection of tasks.
type TaskList struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tasks       []Task    `json:"tasks"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// Clone returns a copy whose task slice does not alias the receiver's.
func (l TaskList) Clone() TaskList {
	tasks := make([]Task, len(l.Tasks))
	copy(tasks, l.Tasks)
	l.Tasks = tasks
	return l
}

// FindTask returns the index of the task with the given id, or -1.
func (l TaskList) FindTask(taskID string) int {
	for i := range l.Tasks {
		if l.Tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// Stats computes the completion statistics of the list.
func (l TaskList) Stats() Stats {
	return ComputeStats(l.Tasks)
}

// TaskListInput carries the caller-supplied fields of a new task list.
type TaskListInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (in TaskListInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: task list title is required", ErrValidation)
	}
	return nil
}

// NewTaskList builds an empty list stamped with now.
func NewTaskList(id string, in TaskListInput, now time.Time) TaskList {
	return TaskList{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Tasks:       []Task{},
		Created:     now,
		Updated:     now,
	}
}
