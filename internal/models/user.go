package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the identity record. Active stays false until the verification
// link is redeemed. Favorites holds pet ids by reference, in the order
// they were added.
type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Email     string               `bson:"email" json:"email" validate:"required,email"`
	Phone     string               `bson:"phone" json:"phone"`
	Password  string               `bson:"password" json:"-"`
	Image     string               `bson:"image,omitempty" json:"image,omitempty"`
	Active    bool                 `bson:"active" json:"active"`
	Favorites []primitive.ObjectID `bson:"favorites" json:"favorites"`
	// Revision guards read-modify-write profile edits.
	Revision  int64     `bson:"revision" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasFavorite reports whether petID is currently in the favorites list.
func (u *User) HasFavorite(petID primitive.ObjectID) bool {
	for _, id := range u.Favorites {
		if id == petID {
			return true
		}
	}
	return false
}
