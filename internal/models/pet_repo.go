package models

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PetRepo interface {
	CreatePet(ctx context.Context, pet *Pet) error
	GetPetByID(ctx context.Context, id primitive.ObjectID) (*Pet, error)
	GetPetsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Pet, error)
	ListPets(ctx context.Context, search string, sort int, skip, limit int64) ([]*Pet, int64, error)
	ListPetsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]*Pet, error)
	UpdatePet(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	DeletePet(ctx context.Context, id primitive.ObjectID) error
}

func (mdb *MongodbRepo) CreatePet(ctx context.Context, pet *Pet) error {
	now := time.Now()
	pet.CreatedAt = now
	pet.UpdatedAt = now

	_, err := mdb.collection(PetsColName).InsertOne(ctx, pet)
	if err != nil {
		return fmt.Errorf("failed to create pet: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetPetByID(ctx context.Context, id primitive.ObjectID) (*Pet, error) {
	var pet Pet
	err := mdb.collection(PetsColName).FindOne(ctx, bson.M{"_id": id}).Decode(&pet)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pet by ID: %v", err)
	}
	return &pet, nil
}

func (mdb *MongodbRepo) GetPetsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Pet, error) {
	if len(ids) == 0 {
		return []*Pet{}, nil
	}

	cursor, err := mdb.collection(PetsColName).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get pets by IDs: %v", err)
	}
	defer cursor.Close(ctx)

	found := make(map[primitive.ObjectID]*Pet, len(ids))
	for cursor.Next(ctx) {
		var pet Pet
		if err := cursor.Decode(&pet); err != nil {
			return nil, fmt.Errorf("failed to decode pet: %v", err)
		}
		found[pet.ID] = &pet
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	// Preserve the caller's ordering, dropping ids that no longer resolve.
	pets := make([]*Pet, 0, len(found))
	for _, id := range ids {
		if pet, ok := found[id]; ok {
			pets = append(pets, pet)
		}
	}
	return pets, nil
}

// ListPets matches names by case-insensitive substring and pages with
// skip/limit, sorting on creation time in the requested direction.
func (mdb *MongodbRepo) ListPets(ctx context.Context, search string, sort int, skip, limit int64) ([]*Pet, int64, error) {
	col := mdb.collection(PetsColName)

	filter := bson.M{}
	if search != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	}

	if sort >= 0 {
		sort = 1
	} else {
		sort = -1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: sort}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pets: %v", err)
	}
	defer cursor.Close(ctx)

	var pets []*Pet
	for cursor.Next(ctx) {
		var pet Pet
		if err := cursor.Decode(&pet); err != nil {
			return nil, 0, fmt.Errorf("failed to decode pet: %v", err)
		}
		pets = append(pets, &pet)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("cursor error: %v", err)
	}

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count pets: %v", err)
	}

	return pets, total, nil
}

func (mdb *MongodbRepo) ListPetsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]*Pet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := mdb.collection(PetsColName).Find(ctx, bson.M{"user._id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets by owner: %v", err)
	}
	defer cursor.Close(ctx)

	var pets []*Pet
	for cursor.Next(ctx) {
		var pet Pet
		if err := cursor.Decode(&pet); err != nil {
			return nil, fmt.Errorf("failed to decode pet: %v", err)
		}
		pets = append(pets, &pet)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return pets, nil
}

func (mdb *MongodbRepo) UpdatePet(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := mdb.collection(PetsColName).UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update pet: %v", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (mdb *MongodbRepo) DeletePet(ctx context.Context, id primitive.ObjectID) error {
	_, err := mdb.collection(PetsColName).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete pet: %v", err)
	}
	return nil
}
