package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCommentRunes = 500

// CommentService manages comments on places. A place's comments are readable
// and writable by exactly the users who can see the place.
type CommentService struct {
	comments repositories.CommentRepository
	places   *PlaceService
	logger   *zap.Logger
}

func NewCommentService(comments repositories.CommentRepository, places *PlaceService, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{comments: comments, places: places, logger: logger}
}

func (s *CommentService) ListComments(ctx context.Context, viewerID uuid.UUID, placeID string, page, limit int) ([]models.Comment, error) {
	if _, err := s.places.visible(ctx, viewerID, placeID); err != nil {
		return nil, err
	}
	skip, lim := pageBounds(page, limit)
	comments, err := s.comments.GetCommentsByPlaceID(ctx, placeID, int(skip), int(lim))
	if err != nil {
		return nil, unavailable("list comments", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (s *CommentService) AddComment(ctx context.Context, authorID uuid.UUID, placeID, content string) (*models.Comment, error) {
	content, err := commentContent(content)
	if err != nil {
		return nil, err
	}
	place, err := s.places.visible(ctx, authorID, placeID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PlaceID: placeID, UserID: authorID, Content: content}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, unavailable("create comment", err)
	}
	s.logger.Info("comment added",
		zap.String("place_id", placeID),
		zap.Stringer("comment_id", comment.ID),
		zap.Stringer("author_id", authorID))

	if owner, err := uuid.Parse(place.OwnerID); err == nil {
		s.places.announce(ctx, owner, placeID)
	}
	return comment, nil
}

// UpdateComment edits the author's own comment on a place they can still see.
func (s *CommentService) UpdateComment(ctx context.Context, authorID, commentID uuid.UUID, content string) (*models.Comment, error) {
	content, err := commentContent(content)
	if err != nil {
		return nil, err
	}
	comment, err := s.authored(ctx, authorID, commentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.places.visible(ctx, authorID, comment.PlaceID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ok, err := s.comments.UpdateContent(ctx, commentID, authorID, content, now)
	if err != nil {
		return nil, unavailable("update comment", err)
	}
	if !ok {
		return nil, notFound("comment")
	}
	comment.Content, comment.UpdatedAt = content, now
	return comment, nil
}

// DeleteComment removes the author's own comment.
func (s *CommentService) DeleteComment(ctx context.Context, authorID, commentID uuid.UUID) error {
	if _, err := s.authored(ctx, authorID, commentID); err != nil {
		return err
	}
	ok, err := s.comments.DeleteComment(ctx, commentID, authorID)
	if err != nil {
		return unavailable("delete comment", err)
	}
	if !ok {
		return notFound("comment")
	}
	return nil
}

func (s *CommentService) authored(ctx context.Context, authorID, commentID uuid.UUID) (*models.Comment, error) {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if errors.Is(err, repositories.ErrCommentNotFound) {
		return nil, notFound("comment")
	}
	if err != nil {
		return nil, unavailable("load comment", err)
	}
	if comment.UserID != authorID {
		s.logger.Warn("comment change by non-author",
			zap.Stringer("comment_id", commentID),
			zap.Stringer("actor_id", authorID))
		return nil, ErrNotAuthorized
	}
	return comment, nil
}

func commentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > maxCommentRunes {
		return "", invalid("content must be between 1 and 500 characters")
	}
	return content, nil
}
