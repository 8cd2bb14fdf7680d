package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/middleware"
	"github.com/nexly/go-shop-api/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.svc.GetMe(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, dto.ToUserResponse(user))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.svc.UpdateMe(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, dto.ToUserResponse(user))
}

func (h *UserHandler) DeactivateMe(c *gin.Context) {
	if err := h.svc.DeactivateMe(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
