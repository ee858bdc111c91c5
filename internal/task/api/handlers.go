package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/kandev/kanboard/internal/common/errors"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/task/models"
	"github.com/kandev/kanboard/internal/task/service"
)

// Handler contains HTTP handlers for the task API
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  log,
	}
}

// ListTasks returns one page of tasks
// GET /tasks?_page=&_limit=&_sort=id&_order=asc&q=&column=
func (h *Handler) ListTasks(c *gin.Context) {
	var query ListTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.respondError(c, apperrors.BadRequest(err.Error()))
		return
	}
	if query.Sort != "" && query.Sort != "id" {
		h.respondError(c, apperrors.BadRequest("_sort supports only 'id'"))
		return
	}
	if query.Order != "" && query.Order != "asc" && query.Order != "desc" {
		h.respondError(c, apperrors.BadRequest("_order must be 'asc' or 'desc'"))
		return
	}

	tasks, total, err := h.service.ListTasks(c.Request.Context(), models.ListFilter{
		Column:     models.ColumnID(query.Column),
		Query:      query.Query,
		Page:       query.Page,
		Limit:      query.Limit,
		Descending: query.Order == "desc",
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header(TotalCountHeader, strconv.Itoa(total))
	c.JSON(http.StatusOK, tasks)
}

// CreateTask creates a new task
// POST /tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), req.toModel())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTask retrieves a task by ID
// GET /tasks/:taskId
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.service.GetTask(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// PatchTask applies a partial update
// PATCH /tasks/:taskId
func (h *Handler) PatchTask(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	task, err := h.service.UpdateTask(c.Request.Context(), c.Param("taskId"), req.toPatch())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ReplaceTask overwrites a task
// PUT /tasks/:taskId
func (h *Handler) ReplaceTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	task, err := h.service.ReplaceTask(c.Request.Context(), c.Param("taskId"), req.toModel())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask deletes a task
// DELETE /tasks/:taskId
func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.service.DeleteTask(c.Request.Context(), c.Param("taskId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// ListColumns returns the board columns
// GET /columns
func (h *Handler) ListColumns(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Columns())
}

// Health reports liveness and the task count
// GET /health
func (h *Handler) Health(c *gin.Context) {
	count, err := h.service.CountTasks(c.Request.Context())
	if err != nil {
		h.respondError(c, apperrors.ServiceUnavailable("task store"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tasks": count})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.InternalError("unexpected error", err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(appErr.HTTPStatus, appErr)
}
