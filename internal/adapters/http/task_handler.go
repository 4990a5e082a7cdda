package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboardx/core/internal/application/services"
	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService  *services.TaskService
	boardService *services.BoardService
	logger       *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(svc *services.Services, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:  svc.Tasks,
		boardService: svc.Board,
		logger:       logger,
	}
}

// ListTasks godoc
// @Summary List tasks
// @Description Filter by project, status and search text; sort by created, due or title
// @Tags tasks
// @Produce json
// @Param projectId query string false "Project ID"
// @Param status query string false "TODO, IN_PROGRESS or DONE"
// @Param search query string false "Matches title or description"
// @Param overdue query bool false "Only unfinished tasks past their due date"
// @Param sort query string false "created (default), due or title"
// @Param page query int false "Page, clamped to the last page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} ports.PaginatedResponse[entities.Task]
// @Failure 400 {object} ports.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter := ports.TaskFilter{
		ProjectID: c.QueryParam("projectId"),
		Search:    c.QueryParam("search"),
		SortBy:    c.QueryParam("sort"),
	}

	err := echo.QueryParamsBinder(c).
		Int("page", &filter.Page).
		Int("pageSize", &filter.PageSize).
		Bool("overdue", &filter.Overdue).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	if raw := c.QueryParam("status"); raw != "" {
		status, err := entities.ParseTaskStatus(raw)
		if err != nil {
			return toHTTPError(err)
		}
		filter.Status = &status
	}

	resp, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		h.logger.Warnw("Create task failed", "error", err, "project_id", req.ProjectID)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask godoc
// @Summary Get task by ID
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	task, err := h.taskService.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Edit a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.UpdateTaskRequest true "Changed fields"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var req ports.UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		h.logger.Warnw("Update task failed", "error", err, "task_id", c.Param("id"))
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} ports.MessageResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	if err := h.taskService.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, messageResponse("Task deleted"))
}

// MoveTask godoc
// @Summary Drop a task on a lane or on another task
// @Tags board
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.MoveTaskRequest true "Drop target"
// @Success 200 {object} ports.MoveResult
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id}/move [post]
func (h *TaskHandler) MoveTask(c echo.Context) error {
	var req ports.MoveTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.boardService.Move(c.Request().Context(), c.Param("id"), req.Target)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// RemoveAssignee godoc
// @Summary Unassign a member from a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Param memberId path string true "Member ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Router /tasks/{id}/assignees/{memberId} [delete]
func (h *TaskHandler) RemoveAssignee(c echo.Context) error {
	task, err := h.taskService.RemoveAssignee(c.Request().Context(), c.Param("id"), c.Param("memberId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, task)
}
