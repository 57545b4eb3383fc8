package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepo is the user data-store boundary. Lookups return (nil, nil)
// when no document matches.
type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	ToggleFavorite(ctx context.Context, userID, petID primitive.ObjectID) (bool, error)
	SetFavorites(ctx context.Context, userID primitive.ObjectID, favorites []primitive.ObjectID) error
}

func (mdb *MongodbRepo) CreateUser(ctx context.Context, user *User) (*User, error) {
	if err := Validate.Struct(user); err != nil {
		return nil, fmt.Errorf("invalid user data: %v", err)
	}

	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(user.Email)
	if user.Favorites == nil {
		user.Favorites = []primitive.ObjectID{}
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := mdb.collection(UsersColName).InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %v", err)
	}
	return user, nil
}

func (mdb *MongodbRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := mdb.collection(UsersColName).
		FindOne(ctx, bson.M{"email": strings.ToLower(email)}).
		Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %v", err)
	}
	return &user, nil
}

func (mdb *MongodbRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	var user User
	err := mdb.collection(UsersColName).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %v", err)
	}
	return &user, nil
}

// UpdateUser writes the full document guarded by the revision the caller
// read. A concurrent edit bumps the revision and the write matches
// nothing; the caller gets ErrStaleDocument instead of losing an update.
func (mdb *MongodbRepo) UpdateUser(ctx context.Context, user *User) error {
	res, err := mdb.collection(UsersColName).UpdateOne(ctx,
		bson.M{"_id": user.ID, "revision": user.Revision},
		bson.M{
			"$set": bson.M{
				"name":       user.Name,
				"phone":      user.Phone,
				"password":   user.Password,
				"image":      user.Image,
				"active":     user.Active,
				"updated_at": time.Now(),
			},
			"$inc": bson.M{"revision": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %v", err)
	}
	if res.MatchedCount == 0 {
		return ErrStaleDocument
	}
	return nil
}

// ToggleFavorite flips petID in the favorites list with a single
// conditional update per direction, so concurrent toggles cannot lose
// writes. Returns true when the pet is now favorited.
func (mdb *MongodbRepo) ToggleFavorite(ctx context.Context, userID, petID primitive.ObjectID) (bool, error) {
	col := mdb.collection(UsersColName)
	now := time.Now()

	res, err := col.UpdateOne(ctx,
		bson.M{"_id": userID, "favorites": petID},
		bson.M{
			"$pull": bson.M{"favorites": petID},
			"$set":  bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %v", err)
	}
	if res.ModifiedCount > 0 {
		return false, nil
	}

	_, err = col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"favorites": petID},
			"$set":      bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to add favorite: %v", err)
	}
	return true, nil
}

// SetFavorites replaces the favorites list, used to drop references to
// pets that no longer exist.
func (mdb *MongodbRepo) SetFavorites(ctx context.Context, userID primitive.ObjectID, favorites []primitive.ObjectID) error {
	_, err := mdb.collection(UsersColName).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"favorites": favorites, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set favorites: %v", err)
	}
	return nil
}
