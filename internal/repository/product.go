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

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type mongoProductRepo struct{ coll *mongo.Collection }

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepo{coll: db.Collection("products")}
}

func (r *mongoProductRepo) Create(ctx context.Context, product *model.Product) error {
	now := time.Now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *mongoProductRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	product := &model.Product{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func (r *mongoProductRepo) List(ctx context.Context) ([]model.Product, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoProductRepo) ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]model.Product, error) {
	return r.find(ctx, bson.M{"category": categoryID})
}

func (r *mongoProductRepo) find(ctx context.Context, filter bson.M) ([]model.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []model.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (r *mongoProductRepo) Update(ctx context.Context, product *model.Product) error {
	product.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *mongoProductRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
