package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationFriendRequest  NotificationKind = "friend_request"
	NotificationFriendAccepted NotificationKind = "friend_accepted"
)

// Notification is an in-app inbox entry (PostgreSQL)
type Notification struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	Kind        NotificationKind `json:"kind" gorm:"size:30;index"`
	ActorID     uuid.UUID        `json:"actor_id" gorm:"type:uuid;index"`
	RecipientID uuid.UUID        `json:"recipient_id" gorm:"type:uuid;index"`
	TargetID    string           `json:"target_id"` // friendship ID
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read" gorm:"index"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NotificationPayload is what the friendship flow hands to a notifier.
type NotificationPayload struct {
	ActorID      uuid.UUID
	ActorName    string
	FriendshipID uuid.UUID
}

// DeviceToken is an FCM registration token for one of a user's devices.
type DeviceToken struct {
	Token     string    `json:"token" gorm:"primaryKey;size:255"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Platform  string    `json:"platform" gorm:"size:10"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required,max=255"`
	Platform string `json:"platform" validate:"omitempty,oneof=android ios web"`
}
