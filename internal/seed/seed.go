// Package seed loads task lists from a YAML file into a repository.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/locvowork/tasktracker/internal/logger"
	"github.com/locvowork/tasktracker/pkg/pipeline"
	"github.com/locvowork/tasktracker/pkg/taskapi"
)

//go:embed default.yaml
var defaultSeed []byte

// File is the root of a seed document.
type File struct {
	TaskLists []TaskList `yaml:"task_lists"`
}

type TaskList struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Tasks       []Task `yaml:"tasks"`
}

type Task struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	DueDate     string `yaml:"due_date"`
	Status      string `yaml:"status"`
	Priority    string `yaml:"priority"`
}

// Input converts the seed task, parsing its due date and enums.
func (t Task) Input() (domain.TaskInput, error) {
	in := domain.TaskInput{Title: t.Title, Description: t.Description}
	var err error
	if t.DueDate != "" {
		if in.DueDate, err = taskapi.ParseTime(t.DueDate); err != nil {
			return in, fmt.Errorf("%w: task %q: %v", domain.ErrValidation, t.Title, err)
		}
	}
	if t.Status != "" {
		if in.Status, err = domain.ParseStatus(t.Status); err != nil {
			return in, fmt.Errorf("task %q: %w", t.Title, err)
		}
	}
	if t.Priority != "" {
		if in.Priority, err = domain.ParsePriority(t.Priority); err != nil {
			return in, fmt.Errorf("task %q: %w", t.Title, err)
		}
	}
	return in, in.Validate()
}

// Parse decodes a seed document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// LoadFile reads and decodes the seed file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in sample data.
func Default() *File {
	f, err := Parse(defaultSeed)
	if err != nil {
		panic(err)
	}
	return f
}

// Result counts what an import created.
type Result struct {
	Lists int
	Tasks int
}

type Option func(*Importer)

// WithWorkers sets how many lists are created concurrently. With more than
// one worker the order of the lists is not preserved.
func WithWorkers(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.workers = n
		}
	}
}

func WithRetryPolicy(p pipeline.RetryPolicy) Option {
	return func(im *Importer) {
		im.retry = p
	}
}

// WithRetryBackoff waits d before every retry instead of backing off
// exponentially. Zero keeps the current policy.
func WithRetryBackoff(d time.Duration) Option {
	return func(im *Importer) {
		if d > 0 {
			im.retry.BackoffFunc = pipeline.ConstantBackoff(d)
		}
	}
}

// Importer writes seed documents through a repository.
type Importer struct {
	repo    domain.TaskListRepository
	workers int
	retry   pipeline.RetryPolicy
}

func NewImporter(repo domain.TaskListRepository, opts ...Option) *Importer {
	im := &Importer{
		repo:    repo,
		workers: 1,
		retry: pipeline.RetryPolicy{
			MaxRetries:  2,
			BackoffFunc: pipeline.ExponentialBackoff(50 * time.Millisecond),
			Retryable:   Retryable,
		},
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Retryable reports whether a failed write may succeed on another attempt.
func Retryable(err error) bool {
	return !domain.IsValidation(err) &&
		!domain.IsNotFound(err) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

type pendingList struct {
	input domain.TaskListInput
	tasks []domain.TaskInput
}

// createdList tracks how many of its tasks were written, so a retried
// action resumes instead of duplicating.
type createdList struct {
	id    string
	tasks []domain.TaskInput
	next  int
}

// Import validates the whole document and then creates its lists and tasks.
// Nothing is written when any entry is invalid.
func (im *Importer) Import(ctx context.Context, f *File) (Result, error) {
	pending, err := prepare(f)
	if err != nil {
		return Result{}, err
	}

	var lists, tasks atomic.Int64
	opts := []pipeline.Option{
		pipeline.WithContext(ctx),
		pipeline.WithRetryPolicy(im.retry),
		pipeline.WithConcurrencyDegree(im.workers),
	}

	create := pipeline.NewTransformBlock(func(ctx context.Context, p pendingList) (*createdList, error) {
		l, err := im.repo.CreateTaskList(ctx, p.input)
		if err != nil {
			return nil, fmt.Errorf("create task list %q: %w", p.input.Title, err)
		}
		return &createdList{id: l.ID, tasks: p.tasks}, nil
	}, opts...)

	// created fans every new list out to the task writer and the tally.
	created := pipeline.NewBufferBlock[*createdList](pipeline.WithContext(ctx))

	fill := pipeline.NewActionBlock(func(ctx context.Context, c *createdList) error {
		for ; c.next < len(c.tasks); c.next++ {
			if _, err := im.repo.CreateTask(ctx, c.id, c.tasks[c.next]); err != nil {
				return fmt.Errorf("create task %q: %w", c.tasks[c.next].Title, err)
			}
			tasks.Add(1)
		}
		return nil
	}, opts...)

	tally := pipeline.NewActionBlock(func(ctx context.Context, c *createdList) error {
		lists.Add(1)
		logger.DebugLog(ctx, fmt.Sprintf("seeded task list %s with %d tasks queued", c.id, len(c.tasks)))
		return nil
	}, pipeline.WithContext(ctx))

	create.LinkTo(created, nil)
	created.LinkTo(fill, func(c *createdList) bool { return len(c.tasks) > 0 })
	created.LinkTo(tally, nil)

	for _, p := range pending {
		if err := create.Send(ctx, p); err != nil {
			break
		}
	}
	create.Complete()

	err = pipeline.WaitAll(create, created, fill, tally)
	res := Result{Lists: int(lists.Load()), Tasks: int(tasks.Load())}
	if err != nil {
		return res, fmt.Errorf("seed import: %w", err)
	}
	logger.InfoLog(ctx, fmt.Sprintf("Seeded %d task lists with %d tasks", res.Lists, res.Tasks))
	return res, nil
}

func prepare(f *File) ([]pendingList, error) {
	if f == nil {
		return nil, nil
	}
	out := make([]pendingList, 0, len(f.TaskLists))
	for i, l := range f.TaskLists {
		p := pendingList{input: domain.TaskListInput{Title: l.Title, Description: l.Description}}
		if err := p.input.Validate(); err != nil {
			return nil, fmt.Errorf("task list #%d: %w", i+1, err)
		}
		for _, t := range l.Tasks {
			in, err := t.Input()
			if err != nil {
				return nil, fmt.Errorf("task list %q: %w", strings.TrimSpace(l.Title), err)
			}
			p.tasks = append(p.tasks, in)
		}
		out = append(out, p)
	}
	return out, nil
}
