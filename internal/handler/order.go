package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/middleware"
	"github.com/nexly/go-shop-api/internal/model"
	"github.com/nexly/go-shop-api/internal/service"
)

type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.svc.CreateFromCart(
		c.Request.Context(),
		middleware.GetUserID(c),
		req.ShippingAddress.ToModel(),
		model.PaymentMethod(req.PaymentMethod),
	)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, order)
}

func (h *OrderHandler) Pay(c *gin.Context) {
	orderID, err := orderIDParam(c)
	if err != nil {
		badRequest(c, "invalid order id")
		return
	}
	intent, err := h.svc.CreatePaymentIntent(c.Request.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, dto.PaymentIntentResponse{ClientSecret: intent.ClientSecret})
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := orderIDParam(c)
	if err != nil {
		badRequest(c, "invalid order id")
		return
	}
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, err.Error())
		return
	}

	order, err := h.svc.Cancel(c.Request.Context(), orderID, middleware.GetUserID(c), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

func (h *OrderHandler) Reorder(c *gin.Context) {
	orderID, err := orderIDParam(c)
	if err != nil {
		badRequest(c, "invalid order id")
		return
	}
	order, err := h.svc.Reorder(c.Request.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, order)
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.svc.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, dto.OrderListResponse{Results: len(orders), Orders: orders})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := orderIDParam(c)
	if err != nil {
		badRequest(c, "invalid order id")
		return
	}
	order, err := h.svc.GetMine(c.Request.Context(), orderID, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

// --- Admin ---

func (h *OrderHandler) ListAll(c *gin.Context) {
	orders, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, dto.OrderListResponse{Results: len(orders), Orders: orders})
}

func (h *OrderHandler) UpdateShippingStatus(c *gin.Context) {
	orderID, err := orderIDParam(c)
	if err != nil {
		badRequest(c, "invalid order id")
		return
	}
	var req dto.UpdateShippingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.svc.UpdateShippingStatus(c.Request.Context(), orderID, model.ShippingStatus(req.ShippingStatus))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

func (h *OrderHandler) Refund(c *gin.Context) {
	orderID, err := orderIDParam(c)
	if err != nil {
		badRequest(c, "invalid order id")
		return
	}
	var req dto.RefundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, err.Error())
		return
	}

	order, err := h.svc.Refund(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

func orderIDParam(c *gin.Context) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Param("orderId"))
}
