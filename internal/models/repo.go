package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Validate = validator.New()

const (
	UsersColName      = "users"
	PetsColName       = "pets"
	LinkTokensColName = "link_tokens"
)

var (
	// ErrDuplicateEmail maps the unique index on users.email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrStaleDocument means a revision-guarded write matched nothing.
	ErrStaleDocument = errors.New("document was modified concurrently")
)

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) collection(name string) *mongo.Collection {
	return mdb.mongodbClient.Database(mdb.dbName).Collection(name)
}

// EnsureIndexes creates the schema-boundary constraints: email and
// token-per-user uniqueness plus the 1 hour TTL sweep on link tokens.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	_, err := mdb.collection(UsersColName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users.email index: %v", err)
	}

	_, err = mdb.collection(LinkTokensColName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create link_tokens.user_id index: %v", err)
	}

	_, err = mdb.collection(LinkTokensColName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(LinkTokenTTL / time.Second)),
	})
	if err != nil {
		return fmt.Errorf("failed to create link_tokens TTL index: %v", err)
	}

	_, err = mdb.collection(PetsColName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user._id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create pets.user._id index: %v", err)
	}

	return nil
}
