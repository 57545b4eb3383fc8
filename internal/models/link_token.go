package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LinkTokenTTL bounds how long a verification or reset link stays live.
// The store's TTL sweep enforces it; the application never polls a clock.
const LinkTokenTTL = time.Hour

// LinkToken is a single-use credential proving control of an email
// address. At most one live token exists per user (unique index).
type LinkToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Token     string             `bson:"token" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
