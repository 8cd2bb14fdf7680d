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

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error)
	// ListByUser returns the user's active orders, newest first.
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	Save(ctx context.Context, order *model.Order) error
}

type mongoOrderRepo struct{ coll *mongo.Collection }

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepo{coll: db.Collection("orders")}
}

func (r *mongoOrderRepo) Create(ctx context.Context, order *model.Order) error {
	now := time.Now()
	order.ID = primitive.NewObjectID()
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *mongoOrderRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	order := &model.Order{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (r *mongoOrderRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]model.Order, error) {
	return r.find(ctx, bson.M{"user": userID, "is_active": true})
}

func (r *mongoOrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoOrderRepo) find(ctx context.Context, filter bson.M) ([]model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []model.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (r *mongoOrderRepo) Save(ctx context.Context, order *model.Order) error {
	order.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}
