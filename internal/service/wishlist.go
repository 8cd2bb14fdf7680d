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

var ErrWishlistNotFound = apperror.NotFound("wishlist not found")

type WishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
}

func NewWishlistService(wishlists repository.WishlistRepository, products repository.ProductRepository) *WishlistService {
	return &WishlistService{wishlists: wishlists, products: products}
}

// Add is idempotent: a product already on the wishlist is left alone.
func (s *WishlistService) Add(ctx context.Context, userID, productID primitive.ObjectID) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	wishlist, err := s.wishlists.GetByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get wishlist: %w", err)
	}
	if wishlist != nil && wishlist.Has(productID) {
		return nil
	}

	if err := s.wishlists.AddItem(ctx, userID, model.WishlistItem{ProductID: productID}); err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID primitive.ObjectID) error {
	found, err := s.wishlists.RemoveItem(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	if !found {
		return ErrWishlistNotFound
	}
	return nil
}

// ListMine joins wishlist entries with their products, newest first.
// Products that were deleted since being wishlisted are skipped.
func (s *WishlistService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]dto.WishlistCard, error) {
	wishlist, err := s.wishlists.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	cards := []dto.WishlistCard{}
	if wishlist == nil {
		return cards, nil
	}

	for i := len(wishlist.Items) - 1; i >= 0; i-- {
		item := wishlist.Items[i]
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product %s: %w", item.ProductID.Hex(), err)
		}
		if product == nil {
			continue
		}
		cards = append(cards, dto.WishlistCard{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			AddedAt:   item.AddedAt,
		})
	}
	return cards, nil
}
