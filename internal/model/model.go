package model

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email                string             `bson:"email" json:"email"`
	Password             string             `bson:"password_hash" json:"-"`
	FirstName            string             `bson:"first_name" json:"first_name"`
	LastName             string             `bson:"last_name" json:"last_name"`
	Role                 Role               `bson:"role" json:"role"`
	IsActive             bool               `bson:"is_active" json:"-"`
	PasswordChangedAt    time.Time          `bson:"password_changed_at,omitempty" json:"-"`
	PasswordResetToken   string             `bson:"password_reset_token,omitempty" json:"-"`
	PasswordResetExpires time.Time          `bson:"password_reset_expires,omitempty" json:"-"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updated_at"`
}

type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description" json:"description"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Slug          string             `bson:"slug" json:"slug"`
	Description   string             `bson:"description" json:"description"`
	Price         decimal.Decimal    `bson:"price" json:"price"`
	Stock         int                `bson:"stock" json:"stock"`
	Image         string             `bson:"image,omitempty" json:"image,omitempty"`
	ImagePublicID string             `bson:"image_public_id,omitempty" json:"-"`
	CategoryID    primitive.ObjectID `bson:"category" json:"category_id"`
	Ratings       float64            `bson:"ratings" json:"ratings"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// CartItem is one line of a cart. PriceSnapshot is fixed when the line is
// added or merged and never tracks later catalog price changes.
type CartItem struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	ProductID     primitive.ObjectID `bson:"product" json:"product_id"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	PriceSnapshot decimal.Decimal    `bson:"price_snapshot" json:"price_snapshot"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.PriceSnapshot.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the single cart document of one user. TotalPrice must equal the
// sum of line subtotals; callers recompute it before every persist.
type Cart struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user" json:"user_id"`
	Items      []CartItem         `bson:"items" json:"items"`
	TotalPrice decimal.Decimal    `bson:"total_price" json:"total_price"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

func (c *Cart) RecomputeTotal() {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	c.TotalPrice = total
}

// Merge folds incoming lines into the cart. A line whose product already
// exists has its quantity incremented and its price snapshot overwritten
// with the incoming value (last write wins); new products are appended.
func (c *Cart) Merge(incoming []CartItem) {
	for _, in := range incoming {
		if in.Quantity < 1 {
			in.Quantity = 1
		}
		merged := false
		for idx := range c.Items {
			if c.Items[idx].ProductID == in.ProductID {
				c.Items[idx].Quantity += in.Quantity
				c.Items[idx].PriceSnapshot = in.PriceSnapshot
				merged = true
				break
			}
		}
		if !merged {
			if in.ID.IsZero() {
				in.ID = primitive.NewObjectID()
			}
			c.Items = append(c.Items, in)
		}
	}
}

func (c *Cart) Item(itemID primitive.ObjectID) *CartItem {
	for idx := range c.Items {
		if c.Items[idx].ID == itemID {
			return &c.Items[idx]
		}
	}
	return nil
}

func (c *Cart) RemoveItem(itemID primitive.ObjectID) bool {
	for idx := range c.Items {
		if c.Items[idx].ID == itemID {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.TotalPrice = decimal.Zero
}

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodPaypal PaymentMethod = "paypal"
	PaymentMethodCrypto PaymentMethod = "crypto"
	PaymentMethodCash   PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodPaypal, PaymentMethodCrypto, PaymentMethodCash:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentFailed   PaymentStatus = "failed"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type ShippingStatus string

const (
	ShippingPending   ShippingStatus = "pending"
	ShippingShipped   ShippingStatus = "shipped"
	ShippingDelivered ShippingStatus = "delivered"
	ShippingCanceled  ShippingStatus = "canceled"
)

func (s ShippingStatus) Valid() bool {
	switch s {
	case ShippingPending, ShippingShipped, ShippingDelivered, ShippingCanceled:
		return true
	}
	return false
}

type Address struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
	Country    string `bson:"country" json:"country"`
}

// OrderLineSnapshot is a cart line frozen at order-creation time, including
// the product name and image as of that moment. It is never resynchronized
// against the catalog.
type OrderLineSnapshot struct {
	ProductID     primitive.ObjectID `bson:"product" json:"product_id"`
	NameSnapshot  string             `bson:"name_snapshot" json:"name"`
	ImageSnapshot string             `bson:"image_snapshot,omitempty" json:"image,omitempty"`
	Price         decimal.Decimal    `bson:"price" json:"price"`
	Quantity      int                `bson:"quantity" json:"quantity"`
}

func (l OrderLineSnapshot) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"user" json:"user_id"`
	Products        []OrderLineSnapshot `bson:"products" json:"products"`
	TotalPrice      decimal.Decimal     `bson:"total_price" json:"total_price"`
	PaymentMethod   PaymentMethod       `bson:"payment_method" json:"payment_method"`
	PaymentStatus   PaymentStatus       `bson:"payment_status" json:"payment_status"`
	ShippingStatus  ShippingStatus      `bson:"shipping_status" json:"shipping_status"`
	ShippingAddress Address             `bson:"shipping_address" json:"shipping_address"`
	TransactionID   string              `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	IsActive        bool                `bson:"is_active" json:"-"`
	CanceledAt      *time.Time          `bson:"canceled_at,omitempty" json:"canceled_at,omitempty"`
	CanceledReason  string              `bson:"canceled_reason,omitempty" json:"canceled_reason,omitempty"`
	RefundedAt      *time.Time          `bson:"refunded_at,omitempty" json:"refunded_at,omitempty"`
	RefundReason    string              `bson:"refund_reason,omitempty" json:"refund_reason,omitempty"`
	PaidAt          *time.Time          `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	DeliveredAt     *time.Time          `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
}

func (o *Order) RecomputeTotal() {
	total := decimal.Zero
	for _, l := range o.Products {
		total = total.Add(l.Subtotal())
	}
	o.TotalPrice = total
}

// Cancelable reports whether the order may still be canceled by its owner:
// not once it has shipped or been delivered, and not after a refund.
func (o *Order) Cancelable() bool {
	if o.ShippingStatus == ShippingShipped || o.ShippingStatus == ShippingDelivered {
		return false
	}
	return o.PaymentStatus != PaymentRefunded
}

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user_id"`
	ProductID primitive.ObjectID `bson:"product" json:"product_id"`
	Review    string             `bson:"review" json:"review"`
	Rating    int                `bson:"rating" json:"rating"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type WishlistItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product_id"`
	AddedAt   time.Time          `bson:"added_at" json:"added_at"`
}

type Wishlist struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user" json:"user_id"`
	Items  []WishlistItem     `bson:"items" json:"items"`
}

func (w *Wishlist) Has(productID primitive.ObjectID) bool {
	for _, it := range w.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// OrderEvent is published on checkout and consumed by the mail worker.
type OrderEvent struct {
	OrderID primitive.ObjectID `json:"order_id"`
	UserID  primitive.ObjectID `json:"user_id"`
}
