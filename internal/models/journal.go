package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coordinate is the latitude/longitude pair captured once when a journal
// entry is created. It is immutable after creation.
type Coordinate struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Journal represents one travel journal entry.
// Images holds durable Cloudinary URLs in the exact order the user picked
// the photos on the device.
type Journal struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UserIDString string             `bson:"user_id_string,omitempty" json:"user_id,omitempty"`
	Title        string             `bson:"title" json:"title"`
	Notes        string             `bson:"notes" json:"notes"`
	Summary      string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Images       []string           `bson:"images" json:"images"`
	Location     *Coordinate        `bson:"location,omitempty" json:"location,omitempty"`
	LocationName string             `bson:"location_name,omitempty" json:"location_name,omitempty"`
}
