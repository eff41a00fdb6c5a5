package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)    // Get own profile
	g.PUT("/profile", h.UpdateProfile) // Update own profile
	g.GET("/users/:id", h.GetUser)     // Get other user's public profile
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, user.ToCompact())
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return userError(err)
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not update profile").SetInternal(err)
	}
	return c.JSON(http.StatusOK, user)
}

func userError(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not load user").SetInternal(err)
}
