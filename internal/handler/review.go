package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/middleware"
	"github.com/nexly/go-shop-api/internal/service"
)

type ReviewHandler struct {
	svc *service.ReviewService
}

func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// Create handles POST /products/:id/reviews.
func (h *ReviewHandler) Create(c *gin.Context) {
	productID, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}
	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	review, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), productID, req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, review)
}

func (h *ReviewHandler) ListByProduct(c *gin.Context) {
	productID, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}
	reviews, err := h.svc.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, reviews)
}

func (h *ReviewHandler) GetByID(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid review id")
		return
	}
	review, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, review)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid review id")
		return
	}
	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	review, err := h.svc.Update(c.Request.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, review)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid review id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
