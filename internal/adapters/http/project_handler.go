package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboardx/core/internal/application/services"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/ports"
)

// ProjectHandler handles project-related requests
type ProjectHandler struct {
	projectService *services.ProjectService
	taskService    *services.TaskService
	boardService   *services.BoardService
	logger         *logger.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(svc *services.Services, logger *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: svc.Projects,
		taskService:    svc.Tasks,
		boardService:   svc.Board,
		logger:         logger,
	}
}

// ListProjects godoc
// @Summary List projects
// @Tags projects
// @Produce json
// @Success 200 {array} entities.Project
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	projects, err := h.projectService.ListProjects(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, projects)
}

// CreateProject godoc
// @Summary Create a new project
// @Description Create a project managed by the local profile
// @Tags projects
// @Accept json
// @Produce json
// @Param request body ports.CreateProjectRequest true "Project data"
// @Success 201 {object} entities.Project
// @Failure 400 {object} ports.ErrorResponse
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req ports.CreateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	project, err := h.projectService.CreateProject(c.Request().Context(), req)
	if err != nil {
		h.logger.Warnw("Create project failed", "error", err)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, project)
}

// GetProject godoc
// @Summary Get project by ID
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} entities.Project
// @Failure 404 {object} ports.ErrorResponse
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c echo.Context) error {
	project, err := h.projectService.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, project)
}

// UpdateProject godoc
// @Summary Edit a project
// @Description Members missing from a submitted member list are unassigned from the project's tasks
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body ports.UpdateProjectRequest true "Changed fields"
// @Success 200 {object} entities.Project
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /projects/{id} [patch]
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	var req ports.UpdateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	project, err := h.projectService.UpdateProject(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		h.logger.Warnw("Update project failed", "error", err, "project_id", c.Param("id"))
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, project)
}

// DeleteProject godoc
// @Summary Delete a project and its tasks
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} ports.DeleteProjectResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	resp, err := h.projectService.DeleteProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// InviteMember godoc
// @Summary Invite a member by name
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body ports.InviteMemberRequest true "Member name"
// @Success 201 {object} entities.Project
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /projects/{id}/members [post]
func (h *ProjectHandler) InviteMember(c echo.Context) error {
	var req ports.InviteMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	project, err := h.projectService.InviteMember(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, project)
}

// RemoveMember godoc
// @Summary Remove a member and unassign them from the project's tasks
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Param memberId path string true "Member ID"
// @Success 200 {object} ports.MessageResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /projects/{id}/members/{memberId} [delete]
func (h *ProjectHandler) RemoveMember(c echo.Context) error {
	if _, err := h.projectService.RemoveMember(c.Request().Context(), c.Param("id"), c.Param("memberId")); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, messageResponse("Member removed"))
}

// GetProjectTasks godoc
// @Summary List a project's tasks
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Router /projects/{id}/tasks [get]
func (h *ProjectHandler) GetProjectTasks(c echo.Context) error {
	tasks, err := h.taskService.ListProjectTasks(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// GetBoard godoc
// @Summary Kanban lanes of a project
// @Tags board
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} ports.Board
// @Failure 404 {object} ports.ErrorResponse
// @Router /projects/{id}/board [get]
func (h *ProjectHandler) GetBoard(c echo.Context) error {
	board, err := h.boardService.Lanes(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, board)
}

// ListUsers godoc
// @Summary Members across all projects
// @Tags users
// @Produce json
// @Success 200 {array} entities.Member
// @Router /users [get]
func (h *ProjectHandler) ListUsers(c echo.Context) error {
	users, err := h.projectService.ListUsers(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetSummary godoc
// @Summary Totals of projects, tasks and members
// @Tags summary
// @Produce json
// @Success 200 {object} ports.Summary
// @Router /summary [get]
func (h *ProjectHandler) GetSummary(c echo.Context) error {
	summary, err := h.projectService.Summary(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// Repair godoc
// @Summary Rebuild task indexes and delete orphaned tasks
// @Tags maintenance
// @Produce json
// @Success 200 {object} ports.RepairReport
// @Router /maintenance/repair [post]
func (h *ProjectHandler) Repair(c echo.Context) error {
	report, err := h.projectService.Repair(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, report)
}
