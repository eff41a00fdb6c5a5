package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrCommentNotFound = errors.New("comment not found")

// CommentRepository defines the interface for place comment operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	GetCommentsByPlaceID(ctx context.Context, placeID string, offset, limit int) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, authorID uuid.UUID, content string, at time.Time) (bool, error)
	DeleteComment(ctx context.Context, id, authorID uuid.UUID) (bool, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// GetCommentsByPlaceID returns a page of a place's comments, newest first.
func (r *PostgresCommentRepository) GetCommentsByPlaceID(ctx context.Context, placeID string, offset, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("place_id = ?", placeID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	return comments, err
}

// UpdateContent edits a comment only when authorID wrote it.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, authorID uuid.UUID, content string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND user_id = ?", id, authorID).
		Updates(map[string]interface{}{"content": content, "updated_at": at})
	return res.RowsAffected == 1, res.Error
}

// DeleteComment removes a comment only when authorID wrote it.
func (r *PostgresCommentRepository) DeleteComment(ctx context.Context, id, authorID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, authorID).Delete(&models.Comment{})
	return res.RowsAffected == 1, res.Error
}
