package handlers

import (
	"net/http"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/anonto42/syrena/backend/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to place comments
type CommentHandler struct {
	comments       *services.CommentService
	userRepository repositories.UserRepository // To fetch author details for comments
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService, userRepo repositories.UserRepository) *CommentHandler {
	return &CommentHandler{comments: comments, userRepository: userRepo}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/places/:id/comments", h.CreateComment)
	g.GET("/places/:id/comments", h.GetCommentsByPlaceID)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CommentResponse is a comment with its author's profile
type CommentResponse struct {
	models.Comment
	Author *models.UserCompact `json:"author,omitempty"`
}

func (h *CommentHandler) withAuthors(c echo.Context, comments []models.Comment) []CommentResponse {
	out := make([]CommentResponse, len(comments))
	ids := make([]uuid.UUID, 0, len(comments))
	for i, cm := range comments {
		out[i] = CommentResponse{Comment: cm}
		ids = append(ids, cm.UserID)
	}
	if len(ids) == 0 {
		return out
	}
	users, err := h.userRepository.GetUsersByIDs(c.Request().Context(), ids)
	if err != nil {
		return out
	}
	authors := make(map[uuid.UUID]models.UserCompact, len(users))
	for i := range users {
		authors[users[i].ID] = users[i].ToCompact()
	}
	for i := range out {
		if a, ok := authors[out[i].UserID]; ok {
			out[i].Author = &a
		}
	}
	return out
}

// CreateComment comments on a place the caller can see
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.AddComment(c.Request().Context(), userID, c.Param("id"), req.Content)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, h.withAuthors(c, []models.Comment{*comment})[0])
}

// GetCommentsByPlaceID returns a page of a place's comments, newest first
func (h *CommentHandler) GetCommentsByPlaceID(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c)

	comments, err := h.comments.ListComments(c.Request().Context(), userID, c.Param("id"), page, limit)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, h.withAuthors(c, comments))
}

// UpdateComment edits the caller's own comment
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.UpdateComment(c.Request().Context(), userID, commentID, req.Content)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes the caller's own comment
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.comments.DeleteComment(c.Request().Context(), userID, commentID); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
