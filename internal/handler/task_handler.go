package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/tasktracker/internal/service"
	"github.com/locvowork/tasktracker/internal/taskquery"
	"github.com/locvowork/tasktracker/pkg/taskapi"
)

type TaskHandler struct {
	svc service.TaskListService
}

func NewTaskHandler(svc service.TaskListService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// ListHandler handles GET /task-lists/:id/tasks?status=&priority=&sort=
func (h *TaskHandler) ListHandler(c echo.Context) error {
	p, err := taskquery.ParseParams(c.QueryParam("status"), c.QueryParam("priority"), c.QueryParam("sort"))
	if err != nil {
		return respondError(c, err, "invalid query")
	}
	tasks, err := h.svc.QueryTasks(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return respondError(c, err, "failed to list tasks")
	}
	return c.JSON(http.StatusOK, tasks)
}

// GetHandler handles GET /task-lists/:id/tasks/:taskId
func (h *TaskHandler) GetHandler(c echo.Context) error {
	t, err := h.svc.GetTask(c.Request().Context(), c.Param("id"), c.Param("taskId"))
	if err != nil {
		return respondError(c, err, "failed to get task")
	}
	return c.JSON(http.StatusOK, t)
}

// CreateHandler handles POST /task-lists/:id/tasks
func (h *TaskHandler) CreateHandler(c echo.Context) error {
	var req taskapi.TaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	in, err := req.Input()
	if err != nil {
		return respondError(c, err, "invalid task")
	}
	t, err := h.svc.CreateTask(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return respondError(c, err, "failed to create task")
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateHandler handles PUT /task-lists/:id/tasks/:taskId. The body may be
// the whole task or only the fields to change.
func (h *TaskHandler) UpdateHandler(c echo.Context) error {
	var req taskapi.TaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	patch, err := req.Patch()
	if err != nil {
		return respondError(c, err, "invalid task")
	}
	t, err := h.svc.UpdateTask(c.Request().Context(), c.Param("id"), c.Param("taskId"), patch)
	if err != nil {
		return respondError(c, err, "failed to update task")
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteHandler handles DELETE /task-lists/:id/tasks/:taskId
func (h *TaskHandler) DeleteHandler(c echo.Context) error {
	if err := h.svc.DeleteTask(c.Request().Context(), c.Param("id"), c.Param("taskId")); err != nil {
		return respondError(c, err, "failed to delete task")
	}
	return c.NoContent(http.StatusNoContent)
}

