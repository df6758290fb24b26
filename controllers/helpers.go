package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/services"
)

// respondData writes the success envelope.
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError writes the error envelope.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps a service error onto the HTTP taxonomy.
func respondServiceError(c *gin.Context, err error) {
	code := "INTERNAL_ERROR"
	message := "Something went wrong"

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		code = svcErr.Code
		message = svcErr.Message
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, code, message)
	case errors.Is(err, services.ErrForbidden):
		respondError(c, http.StatusForbidden, code, message)
	case errors.Is(err, services.ErrInvalidState):
		respondError(c, http.StatusBadRequest, code, message)
	case errors.Is(err, services.ErrValidation):
		respondError(c, http.StatusBadRequest, code, message)
	case errors.Is(err, services.ErrConflict):
		respondError(c, http.StatusConflict, code, message)
	case errors.Is(err, services.ErrNotConfigured):
		respondError(c, http.StatusServiceUnavailable, code, message)
	case errors.Is(err, services.ErrProvider):
		respondError(c, http.StatusBadGateway, "PAYMENT_PROVIDER_ERROR", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Something went wrong")
	}
}

// parseIDParam parses a numeric path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}
