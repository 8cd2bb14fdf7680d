package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nexly/go-shop-api/internal/model"
)

type WishlistRepository interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*model.Wishlist, error)
	// AddItem upserts the user's wishlist and adds the product if absent.
	AddItem(ctx context.Context, userID primitive.ObjectID, item model.WishlistItem) error
	// RemoveItem pulls the product line; it reports whether a wishlist
	// document existed at all.
	RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (bool, error)
}

type mongoWishlistRepo struct{ coll *mongo.Collection }

func NewWishlistRepository(db *mongo.Database) WishlistRepository {
	return &mongoWishlistRepo{coll: db.Collection("wishlists")}
}

func (r *mongoWishlistRepo) GetByUser(ctx context.Context, userID primitive.ObjectID) (*model.Wishlist, error) {
	wishlist := &model.Wishlist{}
	err := r.coll.FindOne(ctx, bson.M{"user": userID}).Decode(wishlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return wishlist, nil
}

func (r *mongoWishlistRepo) AddItem(ctx context.Context, userID primitive.ObjectID, item model.WishlistItem) error {
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	filter := bson.M{"user": userID}
	update := bson.M{"$push": bson.M{"items": item}}
	opts := options.Update().SetUpsert(true)

	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

func (r *mongoWishlistRepo) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	filter := bson.M{"user": userID}
	update := bson.M{"$pull": bson.M{"items": bson.M{"product": productID}}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("remove wishlist item: %w", err)
	}
	return result.MatchedCount > 0, nil
}
