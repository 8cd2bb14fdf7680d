package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/apperror"
	"github.com/nexly/go-shop-api/internal/model"
	"github.com/nexly/go-shop-api/internal/payment"
	"github.com/nexly/go-shop-api/internal/repository"
)

var (
	ErrEmptyCart              = apperror.InvalidState("cart is empty")
	ErrOrderNotFound          = apperror.NotFound("order not found")
	ErrOrderAccessDenied      = apperror.Forbidden("you can only access your own orders")
	ErrOrderAlreadyPaid       = apperror.InvalidState("order is already paid")
	ErrOrderNotCancelable     = apperror.InvalidState("order can no longer be canceled")
	ErrOrderAlreadyRefunded   = apperror.InvalidState("order has already been refunded")
	ErrReorderCanceled        = apperror.InvalidState("cannot reorder a canceled order")
	ErrInvalidShippingStatus  = apperror.Validation("invalid shipping status")
	ErrShippingLockedCanceled = apperror.InvalidState("cannot change shipping for canceled orders")
	ErrOrderNotRefundable     = apperror.InvalidState("only paid orders can be refunded")
	ErrInvalidPaymentMethod   = apperror.Validation("invalid payment method")
)

const defaultReason = "No reason provided"

type OrderService struct {
	orders   repository.OrderRepository
	carts    repository.CartRepository
	products repository.ProductRepository
	gateway  payment.Gateway
	amqpCh   *amqp.Channel
	currency string
	log      *slog.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	products repository.ProductRepository,
	gateway payment.Gateway,
	amqpCh *amqp.Channel,
	currency string,
	log *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		products: products,
		gateway:  gateway,
		amqpCh:   amqpCh,
		currency: currency,
		log:      log,
	}
}

// CreateFromCart materializes an order from the user's cart, freezing each
// line's price, product name, and image as of now, then empties the cart.
// Order insert and cart clear are separate writes: if the clear fails the
// error propagates even though the order document already exists.
func (s *OrderService) CreateFromCart(ctx context.Context, userID primitive.ObjectID, address model.Address, method model.PaymentMethod) (*model.Order, error) {
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]model.OrderLineSnapshot, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product %s: %w", item.ProductID.Hex(), err)
		}
		if product == nil {
			return nil, apperror.NotFound("a product in your cart no longer exists")
		}
		lines = append(lines, model.OrderLineSnapshot{
			ProductID:     item.ProductID,
			NameSnapshot:  product.Name,
			ImageSnapshot: product.Image,
			Price:         item.PriceSnapshot,
			Quantity:      item.Quantity,
		})
	}

	order := &model.Order{
		UserID:          userID,
		Products:        lines,
		PaymentMethod:   method,
		PaymentStatus:   model.PaymentPending,
		ShippingStatus:  model.ShippingPending,
		ShippingAddress: address,
		IsActive:        true,
	}
	order.RecomputeTotal()

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publishOrderEvent(ctx, order)

	cart.Clear()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	return order, nil
}

func (s *OrderService) publishOrderEvent(ctx context.Context, order *model.Order) {
	if s.amqpCh == nil {
		return
	}
	body, err := json.Marshal(model.OrderEvent{OrderID: order.ID, UserID: order.UserID})
	if err != nil {
		s.log.Warn("encode order event", "order_id", order.ID.Hex(), "error", err)
		return
	}
	err = s.amqpCh.PublishWithContext(ctx, "", "orders", false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		s.log.Warn("publish order event", "order_id", order.ID.Hex(), "error", err)
	}
}

// CreatePaymentIntent asks the gateway for an intent over the order total
// converted to minor currency units.
func (s *OrderService) CreatePaymentIntent(ctx context.Context, orderID, requesterID primitive.ObjectID) (*payment.Intent, error) {
	order, err := s.ownedOrder(ctx, orderID, requesterID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == model.PaymentPaid {
		return nil, ErrOrderAlreadyPaid
	}

	amountMinor := order.TotalPrice.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	intent, err := s.gateway.CreateIntent(ctx, amountMinor, s.currency, map[string]string{
		"order_id": order.ID.Hex(),
		"user_id":  order.UserID.Hex(),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intent, nil
}

func (s *OrderService) Cancel(ctx context.Context, orderID, requesterID primitive.ObjectID, reason string) (*model.Order, error) {
	order, err := s.ownedOrder(ctx, orderID, requesterID)
	if err != nil {
		return nil, err
	}

	if order.ShippingStatus == model.ShippingShipped || order.ShippingStatus == model.ShippingDelivered {
		return nil, ErrOrderNotCancelable
	}
	if order.PaymentStatus == model.PaymentRefunded {
		return nil, ErrOrderAlreadyRefunded
	}

	now := time.Now()
	order.ShippingStatus = model.ShippingCanceled
	order.CanceledAt = &now
	if reason == "" {
		reason = defaultReason
	}
	order.CanceledReason = reason

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return order, nil
}

// Reorder clones an order's line snapshots, address, and payment method
// into a fresh pending order. Canceled orders cannot be reordered.
func (s *OrderService) Reorder(ctx context.Context, orderID, requesterID primitive.ObjectID) (*model.Order, error) {
	src, err := s.ownedOrder(ctx, orderID, requesterID)
	if err != nil {
		return nil, err
	}
	if src.ShippingStatus == model.ShippingCanceled {
		return nil, ErrReorderCanceled
	}

	order := &model.Order{
		UserID:          src.UserID,
		Products:        append([]model.OrderLineSnapshot(nil), src.Products...),
		PaymentMethod:   src.PaymentMethod,
		PaymentStatus:   model.PaymentPending,
		ShippingStatus:  model.ShippingPending,
		ShippingAddress: src.ShippingAddress,
		IsActive:        true,
	}
	order.RecomputeTotal()

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publishOrderEvent(ctx, order)
	return order, nil
}

// UpdateShippingStatus is the admin transition. Canceled is a terminal
// state and cannot be left; delivered stamps DeliveredAt.
func (s *OrderService) UpdateShippingStatus(ctx context.Context, orderID primitive.ObjectID, status model.ShippingStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidShippingStatus
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.ShippingStatus == model.ShippingCanceled {
		return nil, ErrShippingLockedCanceled
	}

	order.ShippingStatus = status
	if status == model.ShippingDelivered {
		now := time.Now()
		order.DeliveredAt = &now
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return order, nil
}

// Refund is the admin transition from paid to refunded. It stamps the
// dedicated refund fields, not the cancellation ones.
func (s *OrderService) Refund(ctx context.Context, orderID primitive.ObjectID, reason string) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.PaymentStatus != model.PaymentPaid {
		return nil, ErrOrderNotRefundable
	}

	now := time.Now()
	order.PaymentStatus = model.PaymentRefunded
	order.RefundedAt = &now
	if reason == "" {
		reason = defaultReason
	}
	order.RefundReason = reason

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return order, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]model.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetMine returns the order if the requester owns it or is an admin.
func (s *OrderService) GetMine(ctx context.Context, orderID, requesterID primitive.ObjectID, isAdmin bool) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != requesterID && !isAdmin {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ownedOrder(ctx context.Context, orderID, requesterID primitive.ObjectID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != requesterID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}
