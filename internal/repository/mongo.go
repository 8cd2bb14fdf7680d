package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens a client with the money codec registered and verifies the
// connection with a ping.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetRegistry(Registry()).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client.Database(database), nil
}

// EnsureIndexes creates the unique and lookup indexes the repositories
// rely on. One cart and one wishlist per user are enforced here.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	for coll, models := range map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		"products": {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		"carts": {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: unique},
		},
		"orders": {
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
		"reviews": {
			{Keys: bson.D{{Key: "product", Value: 1}}},
		},
		"wishlists": {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: unique},
		},
	} {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}
