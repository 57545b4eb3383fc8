package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type LinkTokenRepo interface {
	CreateLinkToken(ctx context.Context, userID primitive.ObjectID, token string) (*LinkToken, error)
	GetLinkTokenByUser(ctx context.Context, userID primitive.ObjectID) (*LinkToken, error)
	GetLinkToken(ctx context.Context, userID primitive.ObjectID, token string) (*LinkToken, error)
	DeleteLinkToken(ctx context.Context, id primitive.ObjectID) error
}

func (mdb *MongodbRepo) CreateLinkToken(ctx context.Context, userID primitive.ObjectID, token string) (*LinkToken, error) {
	lt := &LinkToken{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Token:     token,
		CreatedAt: time.Now(),
	}

	_, err := mdb.collection(LinkTokensColName).InsertOne(ctx, lt)
	if err != nil {
		return nil, fmt.Errorf("failed to create link token: %v", err)
	}
	return lt, nil
}

func (mdb *MongodbRepo) GetLinkTokenByUser(ctx context.Context, userID primitive.ObjectID) (*LinkToken, error) {
	var lt LinkToken
	err := mdb.collection(LinkTokensColName).FindOne(ctx, bson.M{"user_id": userID}).Decode(&lt)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link token: %v", err)
	}
	return &lt, nil
}

func (mdb *MongodbRepo) GetLinkToken(ctx context.Context, userID primitive.ObjectID, token string) (*LinkToken, error) {
	var lt LinkToken
	err := mdb.collection(LinkTokensColName).
		FindOne(ctx, bson.M{"user_id": userID, "token": token}).
		Decode(&lt)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link token: %v", err)
	}
	return &lt, nil
}

func (mdb *MongodbRepo) DeleteLinkToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := mdb.collection(LinkTokensColName).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete link token: %v", err)
	}
	return nil
}
