// Package store keeps the authoritative in-memory collection of task lists
// and broadcasts a notification after every successful mutation.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/locvowork/tasktracker/internal/domain"
)

// Store owns every TaskList and Task. All access goes through its methods;
// values handed out are copies.
//
// Mutations are serialized by a mutex. Listeners run synchronously after the
// mutation, before the mutating call returns, with the lock released.
type Store struct {
	mu        sync.Mutex
	lists     []*domain.TaskList
	listeners *registry
	now       func() time.Time
	newID     func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now as the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the UUID generator used for new lists and tasks.
// The generator must never return the same id twice.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithTaskLists preloads the store. The lists are copied.
func WithTaskLists(lists []domain.TaskList) Option {
	return func(s *Store) {
		for _, l := range lists {
			c := l.Clone()
			s.lists = append(s.lists, &c)
		}
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		listeners: newRegistry(),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l and returns a function that deregisters it. Calling
// the returned function more than once has no further effect.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	return s.listeners.add(l)
}

func (s *Store) notify() {
	for _, l := range s.listeners.snapshot() {
		l()
	}
}

// ListTaskLists returns a deep copy of every list in insertion order.
func (s *Store) ListTaskLists() []domain.TaskList {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.TaskList, len(s.lists))
	for i, l := range s.lists {
		out[i] = l.Clone()
	}
	return out
}

// GetTaskList returns a copy of the list, or false when id is unknown.
func (s *Store) GetTaskList(id string) (domain.TaskList, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.find(id)
	if l == nil {
		return domain.TaskList{}, false
	}
	return l.Clone(), true
}

// GetTask returns a copy of one task, or false when either id is unknown.
func (s *Store) GetTask(listID, taskID string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.find(listID)
	if l == nil {
		return domain.Task{}, false
	}
	i := l.FindTask(taskID)
	if i < 0 {
		return domain.Task{}, false
	}
	return l.Tasks[i], true
}

// CreateTaskList appends a new empty list.
func (s *Store) CreateTaskList(title, description string) domain.TaskList {
	s.mu.Lock()
	l := domain.NewTaskList(s.newID(), domain.TaskListInput{Title: title, Description: description}, s.now())
	s.lists = append(s.lists, &l)
	out := l.Clone()
	s.mu.Unlock()

	s.notify()
	return out
}

// UpdateTaskList merges patch into the list and re-stamps its updated time.
func (s *Store) UpdateTaskList(id string, patch domain.TaskListPatch) (domain.TaskList, bool) {
	s.mu.Lock()
	l := s.find(id)
	if l == nil {
		s.mu.Unlock()
		return domain.TaskList{}, false
	}
	patch.Apply(l)
	l.Updated = s.advance(l.Updated)
	out := l.Clone()
	s.mu.Unlock()

	s.notify()
	return out, true
}

// DeleteTaskList removes the list together with all of its tasks.
func (s *Store) DeleteTaskList(id string) bool {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	copy(s.lists[i:], s.lists[i+1:])
	s.lists[len(s.lists)-1] = nil
	s.lists = s.lists[:len(s.lists)-1]
	s.mu.Unlock()

	s.notify()
	return true
}

// CreateTask appends a task to the list and touches the list.
func (s *Store) CreateTask(listID string, in domain.TaskInput) (domain.Task, bool) {
	s.mu.Lock()
	l := s.find(listID)
	if l == nil {
		s.mu.Unlock()
		return domain.Task{}, false
	}
	t := domain.NewTask(s.newID(), in, s.now())
	l.Tasks = append(l.Tasks, t)
	l.Updated = s.advance(l.Updated)
	s.mu.Unlock()

	s.notify()
	return t, true
}

// UpdateTask merges patch into the task, re-stamps it and touches the list.
func (s *Store) UpdateTask(listID, taskID string, patch domain.TaskPatch) (domain.Task, bool) {
	s.mu.Lock()
	l := s.find(listID)
	if l == nil {
		s.mu.Unlock()
		return domain.Task{}, false
	}
	i := l.FindTask(taskID)
	if i < 0 {
		s.mu.Unlock()
		return domain.Task{}, false
	}
	t := &l.Tasks[i]
	patch.Apply(t)
	t.Updated = s.advance(t.Updated)
	l.Updated = s.advance(l.Updated)
	out := *t
	s.mu.Unlock()

	s.notify()
	return out, true
}

// DeleteTask removes the task and touches the list.
func (s *Store) DeleteTask(listID, taskID string) bool {
	s.mu.Lock()
	l := s.find(listID)
	if l == nil {
		s.mu.Unlock()
		return false
	}
	i := l.FindTask(taskID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	l.Tasks = append(l.Tasks[:i:i], l.Tasks[i+1:]...)
	l.Updated = s.advance(l.Updated)
	s.mu.Unlock()

	s.notify()
	return true
}

// GetTaskListStats computes the stats of one list.
func (s *Store) GetTaskListStats(listID string) (domain.Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.find(listID)
	if l == nil {
		return domain.Stats{}, false
	}
	return l.Stats(), true
}

// Summary aggregates stats over every list.
func (s *Store) Summary() domain.Summary {
	lists := s.ListTaskLists()
	return domain.Summarize(lists, s.now())
}

func (s *Store) find(id string) *domain.TaskList {
	if i := s.index(id); i >= 0 {
		return s.lists[i]
	}
	return nil
}

func (s *Store) index(id string) int {
	for i, l := range s.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// advance returns the current time, or prev+1ns when the clock has not moved
// past prev, so that updated always strictly increases.
func (s *Store) advance(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}
