package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/service"
)

type CategoryHandler struct {
	svc        *service.CategoryService
	productSvc *service.ProductService
}

func NewCategoryHandler(svc *service.CategoryService, productSvc *service.ProductService) *CategoryHandler {
	return &CategoryHandler{svc: svc, productSvc: productSvc}
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	category, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, category)
}

func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, categories)
}

func (h *CategoryHandler) GetByID(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid category id")
		return
	}
	category, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, category)
}

func (h *CategoryHandler) ListProducts(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid category id")
		return
	}
	products, err := h.productSvc.ListByCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, products)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid category id")
		return
	}
	var req dto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	category, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid category id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
