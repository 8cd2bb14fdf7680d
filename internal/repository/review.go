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

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Review, error)
	ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type mongoReviewRepo struct{ coll *mongo.Collection }

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &mongoReviewRepo{coll: db.Collection("reviews")}
}

func (r *mongoReviewRepo) Create(ctx context.Context, review *model.Review) error {
	now := time.Now()
	review.ID = primitive.NewObjectID()
	review.CreatedAt = now
	review.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, review); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *mongoReviewRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Review, error) {
	review := &model.Review{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

func (r *mongoReviewRepo) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]model.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"product": productID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []model.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return reviews, nil
}

func (r *mongoReviewRepo) Update(ctx context.Context, review *model.Review) error {
	review.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

func (r *mongoReviewRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
