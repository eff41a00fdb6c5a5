package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a comment on a place (PostgreSQL)
type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PlaceID   string    `json:"place_id" gorm:"size:24;not null;index"` // MongoDB ObjectID as hex
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Content   string    `json:"content" gorm:"size:500;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Comment) TableName() string {
	return "place_comments"
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CreateCommentRequest defines the request body for commenting on a place
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// UpdateCommentRequest defines the request body for editing a comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
