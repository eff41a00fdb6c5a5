package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/syrena/backend/internal/middleware"
	"github.com/anonto42/syrena/backend/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// serviceError maps a service error kind to an HTTP error.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, "You are not allowed to do that")
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "No longer available")
	case errors.Is(err, services.ErrAlreadyFriends):
		return echo.NewHTTPError(http.StatusConflict, "Already connected")
	case errors.Is(err, services.ErrRequestPending):
		return echo.NewHTTPError(http.StatusConflict, "Request pending")
	case errors.Is(err, services.ErrAlreadyResponded):
		return echo.NewHTTPError(http.StatusConflict, "This request was already handled")
	case errors.Is(err, services.ErrNotFriends):
		return echo.NewHTTPError(http.StatusConflict, "Users are not friends")
	case errors.Is(err, services.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Service temporarily unavailable").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
	}
}

func getUserIDFromContext(c echo.Context) uuid.UUID {
	id, _ := middleware.UserID(c)
	return id
}

func currentUser(c echo.Context) (uuid.UUID, error) {
	id := getUserIDFromContext(c)
	if id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// bindAndValidate binds the request body and runs the echo validator when one is set.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
