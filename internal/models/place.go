package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Place is a pin on the map stored in MongoDB
type Place struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID     string             `json:"owner_id" bson:"owner_id"` // User ID of the creator
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Category    string             `json:"category" bson:"category"`
	Notes       string             `json:"notes,omitempty" bson:"notes,omitempty"`
	Lat         float64            `json:"lat" bson:"lat"`
	Lng         float64            `json:"lng" bson:"lng"`
	PriceLevel  int                `json:"price_level,omitempty" bson:"price_level,omitempty"`
	PhotoURL    string             `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	PlaceTypes  []string           `json:"place_types,omitempty" bson:"place_types,omitempty"`
	VisitCount  int                `json:"visit_count" bson:"visit_count"`
	Visitors    []string           `json:"-" bson:"visitors,omitempty"` // user IDs, one entry per visitor
	Visited     bool               `json:"visited" bson:"-"`            // whether the viewer is in Visitors
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreatePlaceRequest defines the request body for pinning a new place
type CreatePlaceRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=120"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    string   `json:"category,omitempty"`
	Notes       string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Lat         *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng         *float64 `json:"lng" validate:"required,min=-180,max=180"`
	PriceLevel  int      `json:"price_level,omitempty" validate:"min=0,max=4"`
	PhotoURL    string   `json:"photo_url,omitempty" validate:"omitempty,url"`
	PlaceTypes  []string `json:"place_types,omitempty"`
}

// Category is one entry of the fixed place category catalogue.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

const (
	ChangeFriendship = "friendship.changed"
	ChangePlace      = "place.changed"
)

// ChangeEvent is pushed to connected clients so they can re-query.
type ChangeEvent struct {
	Type         string           `json:"type"`
	FriendshipID string           `json:"friendship_id,omitempty"`
	Status       FriendshipStatus `json:"status,omitempty"`
	PlaceID      string           `json:"place_id,omitempty"`
	At           time.Time        `json:"at"`
}
