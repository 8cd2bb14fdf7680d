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

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) AddItems(c *gin.Context) {
	var req dto.AddCartItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	items := make([]model.CartItem, 0, len(req.Items))
	for _, p := range req.Items {
		productID, err := primitive.ObjectIDFromHex(p.ProductID)
		if err != nil {
			badRequest(c, "invalid product id")
			return
		}
		items = append(items, model.CartItem{
			ProductID:     productID,
			Quantity:      p.Quantity,
			PriceSnapshot: p.PriceSnapshot,
		})
	}

	cart, err := h.svc.AddItems(c.Request.Context(), middleware.GetUserID(c), items)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, cart)
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.svc.GetCart(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cart)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		badRequest(c, "invalid item id")
		return
	}
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	cart, err := h.svc.UpdateItemQuantity(c.Request.Context(), middleware.GetUserID(c), itemID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		badRequest(c, "invalid item id")
		return
	}
	if _, err := h.svc.RemoveItem(c.Request.Context(), middleware.GetUserID(c), itemID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.svc.ClearCart(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
