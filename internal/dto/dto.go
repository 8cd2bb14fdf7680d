package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        primitive.ObjectID `json:"id"`
	Email     string             `json:"email"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Role      model.Role         `json:"role"`
}

func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID: u.ID, Email: u.Email,
		FirstName: u.FirstName, LastName: u.LastName, Role: u.Role,
	}
}

type UpdateMeRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// --- Catalog ---

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock" binding:"min=0"`
	CategoryID  string          `json:"category_id" binding:"required"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *string          `json:"category_id"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// --- Cart ---

type CartItemPayload struct {
	ProductID     string          `json:"product" binding:"required"`
	Quantity      int             `json:"quantity" binding:"min=0"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot" binding:"required"`
}

type AddCartItemsRequest struct {
	Items []CartItemPayload `json:"items" binding:"required,min=1,dive"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// --- Orders ---

type CreateOrderRequest struct {
	PaymentMethod   string         `json:"payment_method" binding:"required"`
	ShippingAddress AddressPayload `json:"shipping_address" binding:"required"`
}

type AddressPayload struct {
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

func (a AddressPayload) ToModel() model.Address {
	return model.Address{Street: a.Street, City: a.City, PostalCode: a.PostalCode, Country: a.Country}
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type UpdateShippingStatusRequest struct {
	ShippingStatus string `json:"shipping_status" binding:"required"`
}

type RefundOrderRequest struct {
	Reason string `json:"reason"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

type OrderListResponse struct {
	Results int           `json:"results"`
	Orders  []model.Order `json:"orders"`
}

// --- Reviews ---

type CreateReviewRequest struct {
	Review string `json:"review" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
}

type UpdateReviewRequest struct {
	Review *string `json:"review"`
	Rating *int    `json:"rating" binding:"omitempty,min=1,max=5"`
}

// --- Wishlist ---

type AddWishlistItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// WishlistCard is a wishlist entry joined with its product for display.
type WishlistCard struct {
	ProductID primitive.ObjectID `json:"product_id"`
	Name      string             `json:"name"`
	Price     decimal.Decimal    `json:"price"`
	Image     string             `json:"image,omitempty"`
	AddedAt   time.Time          `json:"added_at"`
}
