package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/locvowork/tasktracker/internal/logger"
	"github.com/locvowork/tasktracker/internal/taskquery"
)

// ErrSearchDisabled is returned by SearchTasks and Reindex when no index is
// configured.
var ErrSearchDisabled = errors.New("search is not enabled")

// Indexer mirrors task lists into a full-text index.
type Indexer interface {
	IndexTaskList(ctx context.Context, l domain.TaskList) error
	RemoveTaskList(ctx context.Context, listID string) error
	Search(ctx context.Context, q string) ([]domain.SearchHit, error)
}

type TaskListService interface {
	ListTaskLists(ctx context.Context) ([]domain.TaskList, error)
	GetTaskList(ctx context.Context, id string) (*domain.TaskList, error)
	CreateTaskList(ctx context.Context, in domain.TaskListInput) (*domain.TaskList, error)
	UpdateTaskList(ctx context.Context, id string, patch domain.TaskListPatch) (*domain.TaskList, error)
	DeleteTaskList(ctx context.Context, id string) error

	GetTask(ctx context.Context, listID, taskID string) (*domain.Task, error)
	CreateTask(ctx context.Context, listID string, in domain.TaskInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, listID, taskID string, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, listID, taskID string) error

	Stats(ctx context.Context, listID string) (domain.Stats, error)
	Summary(ctx context.Context) (domain.Summary, error)
	QueryTasks(ctx context.Context, listID string, p taskquery.Params) ([]domain.Task, error)
	SearchTasks(ctx context.Context, q string) ([]domain.SearchHit, error)
	ExportTaskList(ctx context.Context, listID string) ([]byte, error)
	ExportTaskListCSV(ctx context.Context, listID string) ([]byte, error)
	Reindex(ctx context.Context) (int, error)
}

type Option func(*taskListService)

// WithIndexer keeps ix up to date after every successful write.
func WithIndexer(ix Indexer) Option {
	return func(s *taskListService) {
		s.indexer = ix
	}
}

// WithExportTemplate replaces the built-in workbook layout.
func WithExportTemplate(yamlTemplate string) Option {
	return func(s *taskListService) {
		if strings.TrimSpace(yamlTemplate) != "" {
			s.exportTemplate = yamlTemplate
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *taskListService) {
		if now != nil {
			s.now = now
		}
	}
}

type taskListService struct {
	repo           domain.TaskListRepository
	indexer        Indexer
	exportTemplate string
	now            func() time.Time
}

func NewTaskListService(repo domain.TaskListRepository, opts ...Option) TaskListService {
	s := &taskListService{
		repo:           repo,
		exportTemplate: DefaultExportTemplate,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *taskListService) ListTaskLists(ctx context.Context) ([]domain.TaskList, error) {
	return s.repo.ListTaskLists(ctx)
}

func (s *taskListService) GetTaskList(ctx context.Context, id string) (*domain.TaskList, error) {
	return s.repo.GetTaskList(ctx, id)
}

func (s *taskListService) CreateTaskList(ctx context.Context, in domain.TaskListInput) (*domain.TaskList, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l, err := s.repo.CreateTaskList(ctx, in)
	if err != nil {
		return nil, err
	}
	s.index(ctx, *l)
	return l, nil
}

func (s *taskListService) UpdateTaskList(ctx context.Context, id string, patch domain.TaskListPatch) (*domain.TaskList, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	l, err := s.repo.UpdateTaskList(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.index(ctx, *l)
	return l, nil
}

func (s *taskListService) DeleteTaskList(ctx context.Context, id string) error {
	if err := s.repo.DeleteTaskList(ctx, id); err != nil {
		return err
	}
	if s.indexer != nil {
		if err := s.indexer.RemoveTaskList(ctx, id); err != nil {
			logger.ErrorLog(ctx, fmt.Sprintf("failed to remove task list %s from search index: %v", id, err))
		}
	}
	return nil
}

func (s *taskListService) GetTask(ctx context.Context, listID, taskID string) (*domain.Task, error) {
	return s.repo.GetTask(ctx, listID, taskID)
}

func (s *taskListService) CreateTask(ctx context.Context, listID string, in domain.TaskInput) (*domain.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t, err := s.repo.CreateTask(ctx, listID, in)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, listID)
	return t, nil
}

func (s *taskListService) UpdateTask(ctx context.Context, listID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	t, err := s.repo.UpdateTask(ctx, listID, taskID, patch)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, listID)
	return t, nil
}

func (s *taskListService) DeleteTask(ctx context.Context, listID, taskID string) error {
	if err := s.repo.DeleteTask(ctx, listID, taskID); err != nil {
		return err
	}
	s.reindex(ctx, listID)
	return nil
}

func (s *taskListService) Stats(ctx context.Context, listID string) (domain.Stats, error) {
	l, err := s.repo.GetTaskList(ctx, listID)
	if err != nil {
		return domain.Stats{}, err
	}
	return l.Stats(), nil
}

func (s *taskListService) Summary(ctx context.Context) (domain.Summary, error) {
	lists, err := s.repo.ListTaskLists(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(lists, s.now()), nil
}

func (s *taskListService) QueryTasks(ctx context.Context, listID string, p taskquery.Params) ([]domain.Task, error) {
	l, err := s.repo.GetTaskList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return taskquery.Apply(l.Tasks, p), nil
}

func (s *taskListService) SearchTasks(ctx context.Context, q string) ([]domain.SearchHit, error) {
	if s.indexer == nil {
		return nil, ErrSearchDisabled
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrValidation)
	}
	return s.indexer.Search(ctx, q)
}

// Reindex pushes every list into the search index and returns how many
// lists were indexed.
func (s *taskListService) Reindex(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, ErrSearchDisabled
	}
	lists, err := s.repo.ListTaskLists(ctx)
	if err != nil {
		return 0, err
	}
	for i, l := range lists {
		if err := s.indexer.IndexTaskList(ctx, l); err != nil {
			return i, fmt.Errorf("reindex task list %s: %w", l.ID, err)
		}
	}
	logger.InfoLog(ctx, fmt.Sprintf("indexed %d task lists", len(lists)))
	return len(lists), nil
}

func (s *taskListService) reindex(ctx context.Context, listID string) {
	if s.indexer == nil {
		return
	}
	l, err := s.repo.GetTaskList(ctx, listID)
	if err != nil {
		logger.ErrorLog(ctx, fmt.Sprintf("failed to load task list %s for indexing: %v", listID, err))
		return
	}
	s.index(ctx, *l)
}

// index failures are logged only; the write they follow has already succeeded.
func (s *taskListService) index(ctx context.Context, l domain.TaskList) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexTaskList(ctx, l); err != nil {
		logger.ErrorLog(ctx, fmt.Sprintf("failed to index task list %s: %v", l.ID, err))
	}
}
