package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/model"
	"github.com/nexly/go-shop-api/internal/payment"
)

type mockOrderRepo struct {
	orders map[primitive.ObjectID]*model.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[primitive.ObjectID]*model.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id primitive.ObjectID) (*model.Order, error) {
	return m.orders[id], nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]model.Order, error) {
	var orders []model.Order
	for _, o := range m.orders {
		if o.UserID == userID && o.IsActive {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context) ([]model.Order, error) {
	var orders []model.Order
	for _, o := range m.orders {
		orders = append(orders, *o)
	}
	return orders, nil
}

func (m *mockOrderRepo) Save(_ context.Context, order *model.Order) error {
	m.orders[order.ID] = order
	return nil
}

type mockGateway struct {
	lastAmount   int64
	lastCurrency string
	lastMetadata map[string]string
	err          error
}

func (m *mockGateway) CreateIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastAmount = amountMinor
	m.lastCurrency = currency
	m.lastMetadata = metadata
	return &payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func newOrderTestService(orders *mockOrderRepo, carts *mockCartRepo, products *mockProductRepo, gw *mockGateway) *OrderService {
	return NewOrderService(orders, carts, products, gw, nil, "usd", testLogger())
}

func seedCheckoutFixtures(t *testing.T) (*mockCartRepo, *mockProductRepo, primitive.ObjectID) {
	t.Helper()
	carts := newMockCartRepo()
	products := newMockProductRepo()
	userID := primitive.NewObjectID()

	p1 := &model.Product{ID: primitive.NewObjectID(), Name: "Blue Mug", Image: "https://cdn.local/mug.png", Price: money("10.00")}
	p2 := &model.Product{ID: primitive.NewObjectID(), Name: "Tea Towel", Price: money("5.00")}
	products.products[p1.ID] = p1
	products.products[p2.ID] = p2

	carts.carts[userID] = &model.Cart{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Items: []model.CartItem{
			{ID: primitive.NewObjectID(), ProductID: p1.ID, Quantity: 2, PriceSnapshot: money("10.00")},
			{ID: primitive.NewObjectID(), ProductID: p2.ID, Quantity: 1, PriceSnapshot: money("5.00")},
		},
		TotalPrice: money("25.00"),
	}
	return carts, products, userID
}

func TestOrderService_CreateFromCart(t *testing.T) {
	carts, products, userID := seedCheckoutFixtures(t)
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, carts, products, &mockGateway{})

	order, err := svc.CreateFromCart(context.Background(), userID, model.Address{City: "Berlin"}, model.PaymentMethodCard)
	require.NoError(t, err)

	assert.True(t, order.TotalPrice.Equal(money("25.00")), "got %s", order.TotalPrice)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, model.ShippingPending, order.ShippingStatus)
	assert.True(t, order.IsActive)
	require.Len(t, order.Products, 2)
	assert.Equal(t, "Blue Mug", order.Products[0].NameSnapshot)
	assert.Equal(t, "https://cdn.local/mug.png", order.Products[0].ImageSnapshot)

	// Checkout empties the cart.
	assert.Empty(t, carts.carts[userID].Items)
	assert.True(t, carts.carts[userID].TotalPrice.IsZero())
}

type failingSaveCartRepo struct {
	*mockCartRepo
	saveErr error
}

func (m *failingSaveCartRepo) Save(_ context.Context, _ *model.Cart) error {
	return m.saveErr
}

func TestOrderService_CreateFromCart_CartClearFailure(t *testing.T) {
	carts, products, userID := seedCheckoutFixtures(t)
	orders := newMockOrderRepo()
	failing := &failingSaveCartRepo{mockCartRepo: carts, saveErr: errors.New("mongo: connection reset")}
	svc := NewOrderService(orders, failing, products, &mockGateway{}, nil, "usd", testLogger())

	_, err := svc.CreateFromCart(context.Background(), userID, model.Address{}, model.PaymentMethodCard)
	require.Error(t, err)
	assert.ErrorContains(t, err, "clear cart")
}

func TestOrderService_CreateFromCart_EmptyCart(t *testing.T) {
	svc := newOrderTestService(newMockOrderRepo(), newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	_, err := svc.CreateFromCart(context.Background(), primitive.NewObjectID(), model.Address{}, model.PaymentMethodCard)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrderService_CreateFromCart_InvalidMethod(t *testing.T) {
	svc := newOrderTestService(newMockOrderRepo(), newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	_, err := svc.CreateFromCart(context.Background(), primitive.NewObjectID(), model.Address{}, "iou")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestOrderService_CreatePaymentIntent(t *testing.T) {
	orders := newMockOrderRepo()
	gw := &mockGateway{}
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), gw)
	userID := primitive.NewObjectID()

	order := &model.Order{UserID: userID, TotalPrice: money("25.00"), PaymentStatus: model.PaymentPending}
	require.NoError(t, orders.Create(context.Background(), order))

	intent, err := svc.CreatePaymentIntent(context.Background(), order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "pi_test_secret", intent.ClientSecret)
	assert.Equal(t, int64(2500), gw.lastAmount)
	assert.Equal(t, "usd", gw.lastCurrency)
	assert.Equal(t, order.ID.Hex(), gw.lastMetadata["order_id"])
}

func TestOrderService_CreatePaymentIntent_NotOwner(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})

	order := &model.Order{UserID: primitive.NewObjectID(), TotalPrice: money("10.00")}
	require.NoError(t, orders.Create(context.Background(), order))

	_, err := svc.CreatePaymentIntent(context.Background(), order.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrOrderAccessDenied)
}

func TestOrderService_CreatePaymentIntent_AlreadyPaid(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	userID := primitive.NewObjectID()

	order := &model.Order{UserID: userID, TotalPrice: money("10.00"), PaymentStatus: model.PaymentPaid}
	require.NoError(t, orders.Create(context.Background(), order))

	_, err := svc.CreatePaymentIntent(context.Background(), order.ID, userID)
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
}

func TestOrderService_Cancel(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	userID := primitive.NewObjectID()

	order := &model.Order{UserID: userID, ShippingStatus: model.ShippingPending, PaymentStatus: model.PaymentPending}
	require.NoError(t, orders.Create(context.Background(), order))

	canceled, err := svc.Cancel(context.Background(), order.ID, userID, "")
	require.NoError(t, err)
	assert.Equal(t, model.ShippingCanceled, canceled.ShippingStatus)
	require.NotNil(t, canceled.CanceledAt)
	assert.Equal(t, "No reason provided", canceled.CanceledReason)
}

func TestOrderService_Cancel_AlreadyShipped(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	userID := primitive.NewObjectID()

	order := &model.Order{UserID: userID, ShippingStatus: model.ShippingShipped}
	require.NoError(t, orders.Create(context.Background(), order))

	_, err := svc.Cancel(context.Background(), order.ID, userID, "changed my mind")
	assert.ErrorIs(t, err, ErrOrderNotCancelable)
}

func TestOrderService_Cancel_Refunded(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	userID := primitive.NewObjectID()

	order := &model.Order{UserID: userID, ShippingStatus: model.ShippingPending, PaymentStatus: model.PaymentRefunded}
	require.NoError(t, orders.Create(context.Background(), order))

	_, err := svc.Cancel(context.Background(), order.ID, userID, "")
	assert.ErrorIs(t, err, ErrOrderAlreadyRefunded)
}

func TestOrderService_Refund(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})

	order := &model.Order{UserID: primitive.NewObjectID(), PaymentStatus: model.PaymentPaid, ShippingStatus: model.ShippingShipped}
	require.NoError(t, orders.Create(context.Background(), order))

	refunded, err := svc.Refund(context.Background(), order.ID, "damaged in transit")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, refunded.PaymentStatus)
	require.NotNil(t, refunded.RefundedAt)
	assert.Equal(t, "damaged in transit", refunded.RefundReason)
	assert.Nil(t, refunded.CanceledAt)
	assert.Empty(t, refunded.CanceledReason)
}

func TestOrderService_Refund_NotPaid(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})

	order := &model.Order{UserID: primitive.NewObjectID(), PaymentStatus: model.PaymentPending}
	require.NoError(t, orders.Create(context.Background(), order))

	_, err := svc.Refund(context.Background(), order.ID, "")
	assert.ErrorIs(t, err, ErrOrderNotRefundable)
}

func TestOrderService_Reorder(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	userID := primitive.NewObjectID()

	src := &model.Order{
		UserID: userID,
		Products: []model.OrderLineSnapshot{
			{ProductID: primitive.NewObjectID(), NameSnapshot: "Blue Mug", Price: money("10.00"), Quantity: 2},
		},
		PaymentMethod:  model.PaymentMethodCard,
		PaymentStatus:  model.PaymentPaid,
		ShippingStatus: model.ShippingDelivered,
	}
	require.NoError(t, orders.Create(context.Background(), src))

	clone, err := svc.Reorder(context.Background(), src.ID, userID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, clone.ID)
	assert.Equal(t, model.PaymentPending, clone.PaymentStatus)
	assert.Equal(t, model.ShippingPending, clone.ShippingStatus)
	require.Len(t, clone.Products, 1)
	assert.Equal(t, "Blue Mug", clone.Products[0].NameSnapshot)
	assert.True(t, clone.TotalPrice.Equal(money("20.00")), "got %s", clone.TotalPrice)
}

func TestOrderService_Reorder_Canceled(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	userID := primitive.NewObjectID()

	order := &model.Order{UserID: userID, ShippingStatus: model.ShippingCanceled}
	require.NoError(t, orders.Create(context.Background(), order))

	_, err := svc.Reorder(context.Background(), order.ID, userID)
	assert.ErrorIs(t, err, ErrReorderCanceled)
}

func TestOrderService_UpdateShippingStatus(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})

	order := &model.Order{UserID: primitive.NewObjectID(), ShippingStatus: model.ShippingShipped}
	require.NoError(t, orders.Create(context.Background(), order))

	updated, err := svc.UpdateShippingStatus(context.Background(), order.ID, model.ShippingDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.ShippingDelivered, updated.ShippingStatus)
	assert.NotNil(t, updated.DeliveredAt)
}

func TestOrderService_UpdateShippingStatus_Invalid(t *testing.T) {
	svc := newOrderTestService(newMockOrderRepo(), newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	_, err := svc.UpdateShippingStatus(context.Background(), primitive.NewObjectID(), "teleported")
	assert.ErrorIs(t, err, ErrInvalidShippingStatus)
}

func TestOrderService_UpdateShippingStatus_CanceledIsTerminal(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})

	order := &model.Order{UserID: primitive.NewObjectID(), ShippingStatus: model.ShippingCanceled}
	require.NoError(t, orders.Create(context.Background(), order))

	_, err := svc.UpdateShippingStatus(context.Background(), order.ID, model.ShippingShipped)
	assert.ErrorIs(t, err, ErrShippingLockedCanceled)
}

func TestOrderService_GetMine(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	userID := primitive.NewObjectID()

	order := &model.Order{UserID: userID}
	require.NoError(t, orders.Create(context.Background(), order))

	got, err := svc.GetMine(context.Background(), order.ID, userID, false)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetMine(context.Background(), order.ID, primitive.NewObjectID(), false)
	assert.ErrorIs(t, err, ErrOrderAccessDenied)

	// Admins may read any order.
	_, err = svc.GetMine(context.Background(), order.ID, primitive.NewObjectID(), true)
	assert.NoError(t, err)
}

func TestOrderService_ListMine_SkipsInactive(t *testing.T) {
	orders := newMockOrderRepo()
	svc := newOrderTestService(orders, newMockCartRepo(), newMockProductRepo(), &mockGateway{})
	userID := primitive.NewObjectID()

	active := &model.Order{UserID: userID, IsActive: true}
	hidden := &model.Order{UserID: userID, IsActive: false}
	require.NoError(t, orders.Create(context.Background(), active))
	require.NoError(t, orders.Create(context.Background(), hidden))

	list, err := svc.ListMine(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
