package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/anonto42/syrena/backend/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// FriendshipHandler handles HTTP requests related to friendships
type FriendshipHandler struct {
	friendships    *services.FriendshipService
	userRepository repositories.UserRepository // profiles for the friends list
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(friendships *services.FriendshipService, userRepo repositories.UserRepository) *FriendshipHandler {
	return &FriendshipHandler{
		friendships:    friendships,
		userRepository: userRepo,
	}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/friendships", h.SendRequest)
	g.GET("/friendships", h.ListView)
	g.POST("/friendships/:id/respond", h.Respond)
	g.DELETE("/friendships/:id", h.Remove)
	g.GET("/users/search", h.SearchCandidates)
}

// SendRequest handles sending a friend request
func (h *FriendshipHandler) SendRequest(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.SendFriendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	addresseeID, err := uuid.Parse(req.AddresseeID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid addressee_id")
	}

	f, err := h.friendships.SendRequest(c.Request().Context(), userID, addresseeID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, f)
}

// Respond accepts or declines a request addressed to the caller
func (h *FriendshipHandler) Respond(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	friendshipID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req models.RespondFriendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	f, err := h.friendships.Respond(c.Request().Context(), friendshipID, userID, services.Decision(req.Action))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, f)
}

// Remove unfriends (hard-deletes an accepted friendship)
func (h *FriendshipHandler) Remove(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	friendshipID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.friendships.Remove(c.Request().Context(), friendshipID, userID); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ConnectionResponse is a Connection with the counterpart's profile
type ConnectionResponse struct {
	models.Connection
	User *models.UserCompact `json:"user,omitempty"`
}

type FriendViewResponse struct {
	Friends  []ConnectionResponse `json:"friends"`
	Incoming []ConnectionResponse `json:"pending_received"`
	Outgoing []ConnectionResponse `json:"pending_sent"`
}

// ListView returns the caller's friends and pending requests
func (h *FriendshipHandler) ListView(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	view, err := h.friendships.ListView(ctx, userID)
	if err != nil {
		return serviceError(err)
	}

	ids := make([]uuid.UUID, 0, len(view.Friends)+len(view.Incoming)+len(view.Outgoing))
	for _, set := range [][]models.Connection{view.Friends, view.Incoming, view.Outgoing} {
		for _, conn := range set {
			ids = append(ids, conn.UserID)
		}
	}
	profiles := make(map[uuid.UUID]models.UserCompact, len(ids))
	if len(ids) > 0 {
		users, err := h.userRepository.GetUsersByIDs(ctx, ids)
		if err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not load profiles").SetInternal(err)
		}
		for i := range users {
			profiles[users[i].ID] = users[i].ToCompact()
		}
	}

	enrich := func(conns []models.Connection) []ConnectionResponse {
		out := make([]ConnectionResponse, len(conns))
		for i, conn := range conns {
			out[i] = ConnectionResponse{Connection: conn}
			if p, ok := profiles[conn.UserID]; ok {
				out[i].User = &p
			}
		}
		return out
	}
	return c.JSON(http.StatusOK, FriendViewResponse{
		Friends:  enrich(view.Friends),
		Incoming: enrich(view.Incoming),
		Outgoing: enrich(view.Outgoing),
	})
}

// SearchCandidates searches users by handle or name, annotated with the
// caller's relationship to each
func (h *FriendshipHandler) SearchCandidates(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	candidates, err := h.friendships.SearchCandidates(c.Request().Context(), userID, c.QueryParam("q"), limit)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, candidates)
}
