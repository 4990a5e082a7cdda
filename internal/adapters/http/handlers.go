package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/ports"
)

var notFoundErrors = []error{
	entities.ErrProjectNotFound,
	entities.ErrTaskNotFound,
	entities.ErrMemberNotFound,
}

// toHTTPError maps service errors onto status codes. Unknown errors pass
// through to the server's error handler as 500s.
func toHTTPError(err error) error {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return echo.NewHTTPError(http.StatusNotFound, target.Error()).SetInternal(err)
		}
	}
	if errors.Is(err, entities.ErrValidation) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return err
}

// bindAndValidate decodes the JSON body into req and runs its validate tags
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

func messageResponse(msg string) ports.MessageResponse {
	return ports.MessageResponse{Message: msg}
}
