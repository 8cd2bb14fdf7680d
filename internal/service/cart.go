package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/apperror"
	"github.com/nexly/go-shop-api/internal/model"
	"github.com/nexly/go-shop-api/internal/repository"
)

var (
	ErrCartNotFound     = apperror.NotFound("cart not found")
	ErrCartItemNotFound = apperror.NotFound("cart item not found")
	ErrNegativeQuantity = apperror.Validation("quantity must be 0 or more")
)

type CartService struct {
	carts repository.CartRepository
}

func NewCartService(carts repository.CartRepository) *CartService {
	return &CartService{carts: carts}
}

// AddItems creates the user's cart on first use, otherwise merges the
// incoming lines into it: same product increments quantity and overwrites
// the price snapshot, new products append. Quantity defaults to 1.
func (s *CartService) AddItems(ctx context.Context, userID primitive.ObjectID, items []model.CartItem) (*model.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if cart == nil {
		cart = &model.Cart{UserID: userID, Items: []model.CartItem{}}
		cart.Merge(items)
		cart.RecomputeTotal()
		if err := s.carts.Create(ctx, cart); err != nil {
			return nil, fmt.Errorf("create cart: %w", err)
		}
		return cart, nil
	}

	cart.Merge(items)
	cart.RecomputeTotal()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// GetCart treats an empty cart the same as a missing one: callers must add
// before they read.
func (s *CartService) GetCart(ctx context.Context, userID primitive.ObjectID) (*model.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// UpdateItemQuantity overwrites the line's quantity; zero removes the line.
// The price snapshot is deliberately left untouched.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID primitive.ObjectID, quantity int) (*model.Cart, error) {
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}

	item := cart.Item(itemID)
	if item == nil {
		return nil, ErrCartItemNotFound
	}

	if quantity == 0 {
		cart.RemoveItem(itemID)
	} else {
		item.Quantity = quantity
	}

	cart.RecomputeTotal()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID primitive.ObjectID) (*model.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}

	if !cart.RemoveItem(itemID) {
		return nil, ErrCartItemNotFound
	}

	cart.RecomputeTotal()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// ClearCart empties the cart but keeps the document.
func (s *CartService) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return ErrCartNotFound
	}

	cart.Clear()
	if err := s.carts.Save(ctx, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
