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

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type mongoCategoryRepo struct{ coll *mongo.Collection }

func NewCategoryRepository(db *mongo.Database) CategoryRepository {
	return &mongoCategoryRepo{coll: db.Collection("categories")}
}

func (r *mongoCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	now := time.Now()
	category.ID = primitive.NewObjectID()
	category.CreatedAt = now
	category.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *mongoCategoryRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error) {
	category := &model.Category{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(category)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

func (r *mongoCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var categories []model.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

func (r *mongoCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	category.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": category.ID}, category)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (r *mongoCategoryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
