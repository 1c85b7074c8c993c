package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/tasktracker/internal/service"
	"github.com/locvowork/tasktracker/internal/service/serviceutils"
	"github.com/locvowork/tasktracker/pkg/simpleexcel"
	"github.com/locvowork/tasktracker/pkg/taskapi"
)

type TaskListHandler struct {
	svc service.TaskListService
}

func NewTaskListHandler(svc service.TaskListService) *TaskListHandler {
	return &TaskListHandler{svc: svc}
}

// ListHandler handles GET /task-lists
func (h *TaskListHandler) ListHandler(c echo.Context) error {
	lists, err := h.svc.ListTaskLists(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to list task lists")
	}
	return c.JSON(http.StatusOK, lists)
}

// GetHandler handles GET /task-lists/:id
func (h *TaskListHandler) GetHandler(c echo.Context) error {
	l, err := h.svc.GetTaskList(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "failed to get task list")
	}
	return c.JSON(http.StatusOK, l)
}

// CreateHandler handles POST /task-lists
func (h *TaskListHandler) CreateHandler(c echo.Context) error {
	var req taskapi.TaskListRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	l, err := h.svc.CreateTaskList(c.Request().Context(), req.Input())
	if err != nil {
		return respondError(c, err, "failed to create task list")
	}
	return c.JSON(http.StatusCreated, l)
}

// UpdateHandler handles PUT /task-lists/:id. Absent fields are kept.
func (h *TaskListHandler) UpdateHandler(c echo.Context) error {
	var req taskapi.TaskListRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	l, err := h.svc.UpdateTaskList(c.Request().Context(), c.Param("id"), req.Patch())
	if err != nil {
		return respondError(c, err, "failed to update task list")
	}
	return c.JSON(http.StatusOK, l)
}

// DeleteHandler handles DELETE /task-lists/:id
func (h *TaskListHandler) DeleteHandler(c echo.Context) error {
	if err := h.svc.DeleteTaskList(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err, "failed to delete task list")
	}
	return c.NoContent(http.StatusNoContent)
}

// StatsHandler handles GET /task-lists/:id/stats
func (h *TaskListHandler) StatsHandler(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "failed to compute stats")
	}
	return c.JSON(http.StatusOK, stats)
}

// SummaryHandler handles GET /summary
func (h *TaskListHandler) SummaryHandler(c echo.Context) error {
	summary, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to compute summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// ExportHandler handles GET /task-lists/:id/export?format=xlsx|csv
func (h *TaskListHandler) ExportHandler(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	var (
		b           []byte
		err         error
		ext         string
		contentType string
	)
	switch format := strings.ToLower(c.QueryParam("format")); format {
	case "", "xlsx":
		b, err = h.svc.ExportTaskList(ctx, id)
		ext, contentType = "xlsx", simpleexcel.ContentType
	case "csv":
		b, err = h.svc.ExportTaskListCSV(ctx, id)
		ext, contentType = "csv", "text/csv; charset=utf-8"
	default:
		return serviceutils.ResponseError(c, http.StatusBadRequest, "invalid request", fmt.Errorf("unknown export format %q", format))
	}
	if err != nil {
		return respondError(c, err, "failed to export task list")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="task_list_%s.%s"`, id, ext))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(b)))
	return c.Blob(http.StatusOK, contentType, b)
}

// SearchHandler handles GET /search?q=
func (h *TaskListHandler) SearchHandler(c echo.Context) error {
	hits, err := h.svc.SearchTasks(c.Request().Context(), c.QueryParam("q"))
	if err == service.ErrSearchDisabled {
		return serviceutils.ResponseError(c, http.StatusNotFound, "search is not enabled", err)
	}
	if err != nil {
		return respondError(c, err, "search failed")
	}
	return c.JSON(http.StatusOK, hits)
}

// ReindexHandler handles POST /search/reindex
func (h *TaskListHandler) ReindexHandler(c echo.Context) error {
	n, err := h.svc.Reindex(c.Request().Context())
	if err == service.ErrSearchDisabled {
		return serviceutils.ResponseError(c, http.StatusNotFound, "search is not enabled", err)
	}
	if err != nil {
		return respondError(c, err, "failed to rebuild search index")
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "search index rebuilt", map[string]int{"indexed": n})
}
