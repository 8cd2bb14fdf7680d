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

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByResetToken(ctx context.Context, tokenDigest string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type mongoUserRepo struct{ coll *mongo.Collection }

func NewUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepo{coll: db.Collection("users")}
}

func (r *mongoUserRepo) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *mongoUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepo) GetByResetToken(ctx context.Context, tokenDigest string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"password_reset_token": tokenDigest})
}

func (r *mongoUserRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	user := &model.User{}
	err := r.coll.FindOne(ctx, filter).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *mongoUserRepo) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
