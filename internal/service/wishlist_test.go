package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/model"
)

type mockWishlistRepo struct {
	wishlists map[primitive.ObjectID]*model.Wishlist
}

func newMockWishlistRepo() *mockWishlistRepo {
	return &mockWishlistRepo{wishlists: make(map[primitive.ObjectID]*model.Wishlist)}
}

func (m *mockWishlistRepo) GetByUser(_ context.Context, userID primitive.ObjectID) (*model.Wishlist, error) {
	return m.wishlists[userID], nil
}

func (m *mockWishlistRepo) AddItem(_ context.Context, userID primitive.ObjectID, item model.WishlistItem) error {
	item.AddedAt = time.Now()
	w, ok := m.wishlists[userID]
	if !ok {
		w = &model.Wishlist{ID: primitive.NewObjectID(), UserID: userID}
		m.wishlists[userID] = w
	}
	w.Items = append(w.Items, item)
	return nil
}

func (m *mockWishlistRepo) RemoveItem(_ context.Context, userID, productID primitive.ObjectID) (bool, error) {
	w, ok := m.wishlists[userID]
	if !ok {
		return false, nil
	}
	for i, it := range w.Items {
		if it.ProductID == productID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			break
		}
	}
	return true, nil
}

func TestWishlistService_Add_Idempotent(t *testing.T) {
	wishlists := newMockWishlistRepo()
	products := newMockProductRepo()
	product := &model.Product{Name: "Blue Mug", Price: money("10.00")}
	require.NoError(t, products.Create(context.Background(), product))
	svc := NewWishlistService(wishlists, products)
	userID := primitive.NewObjectID()

	require.NoError(t, svc.Add(context.Background(), userID, product.ID))
	require.NoError(t, svc.Add(context.Background(), userID, product.ID))

	assert.Len(t, wishlists.wishlists[userID].Items, 1)
}

func TestWishlistService_Add_UnknownProduct(t *testing.T) {
	svc := NewWishlistService(newMockWishlistRepo(), newMockProductRepo())
	err := svc.Add(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestWishlistService_Remove_NoWishlist(t *testing.T) {
	svc := NewWishlistService(newMockWishlistRepo(), newMockProductRepo())
	err := svc.Remove(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrWishlistNotFound)
}

func TestWishlistService_ListMine(t *testing.T) {
	wishlists := newMockWishlistRepo()
	products := newMockProductRepo()
	svc := NewWishlistService(wishlists, products)
	userID := primitive.NewObjectID()

	first := &model.Product{Name: "Blue Mug", Price: money("10.00")}
	second := &model.Product{Name: "Tea Towel", Price: money("5.00")}
	require.NoError(t, products.Create(context.Background(), first))
	require.NoError(t, products.Create(context.Background(), second))

	require.NoError(t, svc.Add(context.Background(), userID, first.ID))
	require.NoError(t, svc.Add(context.Background(), userID, second.ID))

	cards, err := svc.ListMine(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	// Newest first.
	assert.Equal(t, "Tea Towel", cards[0].Name)
	assert.Equal(t, "Blue Mug", cards[1].Name)
}

func TestWishlistService_ListMine_SkipsDeletedProducts(t *testing.T) {
	wishlists := newMockWishlistRepo()
	products := newMockProductRepo()
	svc := NewWishlistService(wishlists, products)
	userID := primitive.NewObjectID()

	product := &model.Product{Name: "Blue Mug", Price: money("10.00")}
	require.NoError(t, products.Create(context.Background(), product))
	require.NoError(t, svc.Add(context.Background(), userID, product.ID))
	require.NoError(t, products.Delete(context.Background(), product.ID))

	cards, err := svc.ListMine(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestWishlistService_ListMine_EmptyForNewUser(t *testing.T) {
	svc := NewWishlistService(newMockWishlistRepo(), newMockProductRepo())
	cards, err := svc.ListMine(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}
