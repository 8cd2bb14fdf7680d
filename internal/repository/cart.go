package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nexly/go-shop-api/internal/model"
)

// CartRepository persists the one cart document per user. Mutations are
// fetch-then-save on the whole document: two concurrent writers for the
// same user race and the last save wins.
type CartRepository interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*model.Cart, error)
	Create(ctx context.Context, cart *model.Cart) error
	Save(ctx context.Context, cart *model.Cart) error
}

type mongoCartRepo struct{ coll *mongo.Collection }

func NewCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepo{coll: db.Collection("carts")}
}

func (r *mongoCartRepo) GetByUser(ctx context.Context, userID primitive.ObjectID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.coll.FindOne(ctx, bson.M{"user": userID}).Decode(cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (r *mongoCartRepo) Create(ctx context.Context, cart *model.Cart) error {
	now := time.Now()
	cart.ID = primitive.NewObjectID()
	cart.CreatedAt = now
	cart.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, cart); err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

func (r *mongoCartRepo) Save(ctx context.Context, cart *model.Cart) error {
	cart.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
