package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexly/go-shop-api/internal/apperror"
)

// All responses share one envelope: {"status":"success","data":...} or
// {"status":"error","message":...}. Every service error funnels through
// fail, which maps the error kind to the HTTP status.

func respond(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"status": "success", "data": data})
}

func fail(c *gin.Context, err error) {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		errorJSON(c, http.StatusNotFound, err.Error())
	case apperror.KindForbidden:
		errorJSON(c, http.StatusForbidden, err.Error())
	case apperror.KindInvalidState, apperror.KindValidation:
		errorJSON(c, http.StatusBadRequest, err.Error())
	default:
		errorJSON(c, http.StatusInternalServerError, "internal server error")
	}
}

func badRequest(c *gin.Context, msg string) {
	errorJSON(c, http.StatusBadRequest, msg)
}

func errorJSON(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"status": "error", "message": msg})
}
