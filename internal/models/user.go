package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a Syrena profile. Its ID is the Identity every other table refers to.
type User struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username    string    `json:"username" gorm:"size:30;uniqueIndex;not null"`
	DisplayName string    `json:"display_name" gorm:"size:100"`
	Email       string    `json:"email,omitempty" gorm:"uniqueIndex;not null"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Password    string    `json:"-"`                                        // bcrypt hash, empty for Firebase-only accounts
	FirebaseUID *string   `json:"-" gorm:"uniqueIndex"`                     // nil for local accounts
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserCompact is the public slice of a profile embedded in other responses.
type UserCompact struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// Name returns the display name, falling back to the handle.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

type CreateLocalUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30,alphanum"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=1,max=100"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
