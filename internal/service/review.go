package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/apperror"
	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/model"
	"github.com/nexly/go-shop-api/internal/repository"
)

var (
	ErrReviewNotFound     = apperror.NotFound("review not found")
	ErrReviewAccessDenied = apperror.Forbidden("you are not allowed to modify this review")
)

type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
}

func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository) *ReviewService {
	return &ReviewService{reviews: reviews, products: products}
}

func (s *ReviewService) Create(ctx context.Context, userID, productID primitive.ObjectID, req dto.CreateReviewRequest) (*model.Review, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	review := &model.Review{
		UserID:    userID,
		ProductID: productID,
		Review:    req.Review,
		Rating:    req.Rating,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]model.Review, error) {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Update is restricted to the review's author or an admin.
func (s *ReviewService) Update(ctx context.Context, id, requesterID primitive.ObjectID, isAdmin bool, req dto.UpdateReviewRequest) (*model.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	if review.UserID != requesterID && !isAdmin {
		return nil, ErrReviewAccessDenied
	}

	if req.Review != nil {
		review.Review = *req.Review
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, id, requesterID primitive.ObjectID, isAdmin bool) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return ErrReviewNotFound
	}
	if review.UserID != requesterID && !isAdmin {
		return ErrReviewAccessDenied
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
