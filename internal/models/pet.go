package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OwnerSnapshot is a copy of the owner's public fields taken at listing
// creation. It is deliberately never re-synced with later user edits.
type OwnerSnapshot struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Image string             `bson:"image,omitempty" json:"image,omitempty"`
	Phone string             `bson:"phone" json:"phone"`
}

type Pet struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Type         string             `bson:"type" json:"type"`
	SpecificType string             `bson:"specific_type" json:"specific_type"`
	Sex          string             `bson:"sex" json:"sex"`
	Years        int                `bson:"years" json:"years"`
	Months       int                `bson:"months" json:"months"`
	WeightKg     int                `bson:"weight_kg" json:"weight_kg"`
	WeightG      int                `bson:"weight_g" json:"weight_g"`
	Bio          string             `bson:"bio" json:"bio"`
	LatLong      []float64          `bson:"lat_long" json:"lat_long"`
	State        string             `bson:"state" json:"state"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	District     string             `bson:"district,omitempty" json:"district,omitempty"`
	Images       []string           `bson:"images" json:"images"`
	Active       bool               `bson:"active" json:"active"`
	User         OwnerSnapshot      `bson:"user" json:"user"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
