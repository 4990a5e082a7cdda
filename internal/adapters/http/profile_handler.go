package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboardx/core/internal/application/services"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/ports"
)

// ProfileHandler handles the local profile
type ProfileHandler struct {
	profileService *services.ProfileService
	projectService *services.ProjectService
	logger         *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(svc *services.Services, logger *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: svc.Profile,
		projectService: svc.Projects,
		logger:         logger,
	}
}

// GetProfile godoc
// @Summary Get the local profile
// @Tags profile
// @Produce json
// @Success 200 {object} entities.Profile
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	profile, err := h.profileService.GetProfile(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update the local profile
// @Tags profile
// @Accept json
// @Produce json
// @Param request body ports.UpdateProfileRequest true "Changed fields"
// @Success 200 {object} entities.Profile
// @Failure 400 {object} ports.ErrorResponse
// @Router /profile [patch]
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	var req ports.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := h.profileService.UpdateProfile(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, profile)
}

// GetManagedProjects godoc
// @Summary Projects managed by the local profile
// @Tags profile
// @Produce json
// @Success 200 {array} entities.Project
// @Router /profile/projects [get]
func (h *ProfileHandler) GetManagedProjects(c echo.Context) error {
	projects, err := h.projectService.ManagedProjects(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, projects)
}
