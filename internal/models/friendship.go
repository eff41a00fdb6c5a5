package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
)

// Friendship is a friend request between two users. The row is directed
// (requester -> addressee) but PairKey is not, so the unique index on it
// allows a single row per unordered pair.
type Friendship struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	RequesterID uuid.UUID        `json:"requester_id" gorm:"type:uuid;not null;index"`
	AddresseeID uuid.UUID        `json:"addressee_id" gorm:"type:uuid;not null;index"`
	PairKey     string           `json:"-" gorm:"size:73;not null;uniqueIndex:idx_friendships_pair"`
	Status      FriendshipStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Friendship) TableName() string {
	return "friendships"
}

func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.PairKey = PairKey(f.RequesterID, f.AddresseeID)
	return nil
}

// PairKey is the order-independent key of the pair {a, b}.
func PairKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if x > y {
		x, y = y, x
	}
	return x + ":" + y
}

// Involves reports whether userID is one of the two parties.
func (f *Friendship) Involves(userID uuid.UUID) bool {
	return f.RequesterID == userID || f.AddresseeID == userID
}

// Counterpart returns the party that is not viewerID.
func (f *Friendship) Counterpart(viewerID uuid.UUID) uuid.UUID {
	if f.RequesterID == viewerID {
		return f.AddresseeID
	}
	return f.RequesterID
}

type SendFriendRequest struct {
	AddresseeID string `json:"addressee_id" validate:"required,uuid"`
}

type RespondFriendRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

// Connection is one counterpart in a FriendView.
type Connection struct {
	FriendshipID uuid.UUID        `json:"friendship_id"`
	UserID       uuid.UUID        `json:"user_id"`
	Status       FriendshipStatus `json:"status"`
	IsRequester  bool             `json:"is_requester"`
	CreatedAt    time.Time        `json:"created_at"`
}

// FriendView partitions a viewer's relationships. A counterpart appears in at
// most one of the three lists.
type FriendView struct {
	Friends  []Connection `json:"friends"`
	Incoming []Connection `json:"pending_received"`
	Outgoing []Connection `json:"pending_sent"`
}

// FriendIDs returns the set of accepted counterparts.
func (v FriendView) FriendIDs() map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{}, len(v.Friends))
	for _, c := range v.Friends {
		ids[c.UserID] = struct{}{}
	}
	return ids
}

type Relation string

const (
	RelationNone     Relation = "none"
	RelationFriends  Relation = "friends"
	RelationOutgoing Relation = "pending_sent"
	RelationIncoming Relation = "pending_received"
)

// Candidate is a user search hit annotated with the viewer's relationship.
type Candidate struct {
	User             UserCompact       `json:"user"`
	Relation         Relation          `json:"relation"`
	FriendshipID     *uuid.UUID        `json:"friendship_id"`
	FriendshipStatus *FriendshipStatus `json:"friendship_status"`
}
