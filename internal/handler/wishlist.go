package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/middleware"
	"github.com/nexly/go-shop-api/internal/service"
)

type WishlistHandler struct {
	svc *service.WishlistService
}

func NewWishlistHandler(svc *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{svc: svc}
}

func (h *WishlistHandler) Add(c *gin.Context) {
	var req dto.AddWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}
	if err := h.svc.Add(c.Request.Context(), middleware.GetUserID(c), productID); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "added to wishlist"})
}

func (h *WishlistHandler) ListMine(c *gin.Context) {
	cards, err := h.svc.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cards)
}

func (h *WishlistHandler) Remove(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}
	if err := h.svc.Remove(c.Request.Context(), middleware.GetUserID(c), productID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
