package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/model"
)

type mockReviewRepo struct {
	reviews map[primitive.ObjectID]*model.Review
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[primitive.ObjectID]*model.Review)}
}

func (m *mockReviewRepo) Create(_ context.Context, review *model.Review) error {
	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now()
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id primitive.ObjectID) (*model.Review, error) {
	return m.reviews[id], nil
}

func (m *mockReviewRepo) ListByProduct(_ context.Context, productID primitive.ObjectID) ([]model.Review, error) {
	var reviews []model.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			reviews = append(reviews, *r)
		}
	}
	return reviews, nil
}

func (m *mockReviewRepo) Update(_ context.Context, review *model.Review) error {
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(m.reviews, id)
	return nil
}

func TestReviewService_Create(t *testing.T) {
	products := newMockProductRepo()
	product := &model.Product{Name: "Blue Mug", Price: money("10.00")}
	require.NoError(t, products.Create(context.Background(), product))
	svc := NewReviewService(newMockReviewRepo(), products)

	review, err := svc.Create(context.Background(), primitive.NewObjectID(), product.ID, dto.CreateReviewRequest{
		Review: "Holds liquid admirably", Rating: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.False(t, review.ID.IsZero())
}

func TestReviewService_Create_UnknownProduct(t *testing.T) {
	svc := NewReviewService(newMockReviewRepo(), newMockProductRepo())
	_, err := svc.Create(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), dto.CreateReviewRequest{
		Review: "x", Rating: 1,
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestReviewService_Update_OnlyAuthorOrAdmin(t *testing.T) {
	reviews := newMockReviewRepo()
	svc := NewReviewService(reviews, newMockProductRepo())
	authorID := primitive.NewObjectID()

	review := &model.Review{UserID: authorID, ProductID: primitive.NewObjectID(), Review: "Fine", Rating: 3}
	require.NoError(t, reviews.Create(context.Background(), review))

	rating := 4
	_, err := svc.Update(context.Background(), review.ID, primitive.NewObjectID(), false, dto.UpdateReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, ErrReviewAccessDenied)

	updated, err := svc.Update(context.Background(), review.ID, authorID, false, dto.UpdateReviewRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)

	rating = 1
	updated, err = svc.Update(context.Background(), review.ID, primitive.NewObjectID(), true, dto.UpdateReviewRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Rating)
}

func TestReviewService_Delete(t *testing.T) {
	reviews := newMockReviewRepo()
	svc := NewReviewService(reviews, newMockProductRepo())
	authorID := primitive.NewObjectID()

	review := &model.Review{UserID: authorID, ProductID: primitive.NewObjectID(), Review: "Fine", Rating: 3}
	require.NoError(t, reviews.Create(context.Background(), review))

	err := svc.Delete(context.Background(), review.ID, primitive.NewObjectID(), false)
	assert.ErrorIs(t, err, ErrReviewAccessDenied)

	require.NoError(t, svc.Delete(context.Background(), review.ID, authorID, false))
	assert.Empty(t, reviews.reviews)

	err = svc.Delete(context.Background(), review.ID, authorID, false)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}
