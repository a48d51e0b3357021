package handler

import (
	"errors"
	"log"
	"net/http"

	"procurement/internal/service"
	"procurement/pkg/pagination"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var verrs service.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, response.ValidationError("Validation failed", verrs))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(err.Error()))
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, response.Error(err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(err.Error()))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, response.Error(err.Error()))
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, response.Error("Internal server error"))
	}
}

// bindJSON decodes the body or writes a 400
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

func respondPage(c *gin.Context, msg string, items interface{}, p pagination.Params, total int64) {
	c.JSON(http.StatusOK, response.SuccessWithPagination(msg, items, p.Page, p.PerPage, total))
}
