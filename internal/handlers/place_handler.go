package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PlaceHandler handles HTTP requests related to places
type PlaceHandler struct {
	places *services.PlaceService
}

// NewPlaceHandler creates a new PlaceHandler
func NewPlaceHandler(places *services.PlaceService) *PlaceHandler {
	return &PlaceHandler{places: places}
}

// RegisterPlaceRoutes registers place-related routes
func (h *PlaceHandler) RegisterPlaceRoutes(g *echo.Group) {
	g.POST("/places", h.CreatePlace)
	g.GET("/places", h.ListVisible)
	g.GET("/places/mine", h.ListMine)
	g.GET("/places/categories", h.Categories)
	g.GET("/places/:id", h.GetPlace)
	g.POST("/places/:id/visit", h.MarkVisited)
	g.DELETE("/places/:id/visit", h.UnmarkVisited)
	g.DELETE("/places/:id", h.DeletePlace)
	g.GET("/users/:id/places", h.ListFriendPlaces)
}

func pagination(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	return page, limit
}

// CreatePlace pins a new place for the caller
func (h *PlaceHandler) CreatePlace(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreatePlaceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	place, err := h.places.CreatePlace(c.Request().Context(), userID, req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, place)
}

// ListVisible returns the caller's places and their friends' places
func (h *PlaceHandler) ListVisible(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c)
	places, err := h.places.ListVisible(c.Request().Context(), userID, page, limit)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, places)
}

func (h *PlaceHandler) ListMine(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c)
	places, err := h.places.ListMine(c.Request().Context(), userID, page, limit)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, places)
}

// ListFriendPlaces returns one friend's places
func (h *PlaceHandler) ListFriendPlaces(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	friendID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	page, limit := pagination(c)
	places, err := h.places.ListFriendPlaces(c.Request().Context(), userID, friendID, page, limit)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, places)
}

func (h *PlaceHandler) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, services.Categories())
}

func (h *PlaceHandler) GetPlace(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	place, err := h.places.GetPlace(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, place)
}

// MarkVisited records the caller's visit; repeating it is harmless
func (h *PlaceHandler) MarkVisited(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	place, err := h.places.MarkVisited(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, place)
}

func (h *PlaceHandler) UnmarkVisited(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	place, err := h.places.UnmarkVisited(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, place)
}

func (h *PlaceHandler) DeletePlace(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.places.DeletePlace(c.Request().Context(), userID, c.Param("id")); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
