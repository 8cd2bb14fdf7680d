package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/service"
)

type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	product, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, product)
}

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, products)
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}
	product, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	product, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage accepts a multipart form with an "image" file field.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "cannot read image file")
		return
	}
	defer file.Close()

	product, err := h.svc.UploadImage(c.Request.Context(), id, file)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, product)
}

func idParam(c *gin.Context) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Param("id"))
}
